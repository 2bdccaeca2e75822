package merchants

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// Repository handles merchant and merchant_location persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a merchants repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new merchant.
func (r *Repository) Create(ctx context.Context, m *models.Merchant) error {
	const q = `INSERT INTO merchants (id, owner_id, name, category, description)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, m.OwnerID, m.Name, m.Category, m.Description).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

// GetByID returns a merchant by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	const q = `SELECT id, owner_id, name, category, description, logo_key, created_at, updated_at FROM merchants WHERE id = $1`
	var m models.Merchant
	err := r.pool.QueryRow(ctx, q, id).Scan(&m.ID, &m.OwnerID, &m.Name, &m.Category, &m.Description, &m.LogoKey, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByOwner returns the merchant owned by a user.
func (r *Repository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Merchant, error) {
	const q = `SELECT id, owner_id, name, category, description, logo_key, created_at, updated_at FROM merchants WHERE owner_id = $1`
	var m models.Merchant
	err := r.pool.QueryRow(ctx, q, ownerID).Scan(&m.ID, &m.OwnerID, &m.Name, &m.Category, &m.Description, &m.LogoKey, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns all merchants.
func (r *Repository) List(ctx context.Context) ([]models.Merchant, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, owner_id, name, category, description, logo_key, created_at, updated_at FROM merchants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Merchant
	for rows.Next() {
		var m models.Merchant
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Name, &m.Category, &m.Description, &m.LogoKey, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Update updates merchant profile fields.
func (r *Repository) Update(ctx context.Context, m *models.Merchant) error {
	const q = `UPDATE merchants SET name = $2, category = $3, description = $4, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, m.ID, m.Name, m.Category, m.Description)
	return err
}

// AddLocation inserts a merchant location.
func (r *Repository) AddLocation(ctx context.Context, l *models.MerchantLocation) error {
	const q = `INSERT INTO merchant_locations (id, merchant_id, address, city, state, latitude, longitude)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, l.MerchantID, l.Address, l.City, l.State, l.Latitude, l.Longitude).
		Scan(&l.ID, &l.CreatedAt)
}

// ListLocations returns all locations for a merchant.
func (r *Repository) ListLocations(ctx context.Context, merchantID uuid.UUID) ([]models.MerchantLocation, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, merchant_id, address, city, state, latitude, longitude, created_at FROM merchant_locations WHERE merchant_id = $1 ORDER BY created_at`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.MerchantLocation
	for rows.Next() {
		var l models.MerchantLocation
		if err := rows.Scan(&l.ID, &l.MerchantID, &l.Address, &l.City, &l.State, &l.Latitude, &l.Longitude, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// GetLocation returns a merchant location by ID.
func (r *Repository) GetLocation(ctx context.Context, id uuid.UUID) (*models.MerchantLocation, error) {
	const q = `SELECT id, merchant_id, address, city, state, latitude, longitude, created_at FROM merchant_locations WHERE id = $1`
	var l models.MerchantLocation
	err := r.pool.QueryRow(ctx, q, id).Scan(&l.ID, &l.MerchantID, &l.Address, &l.City, &l.State, &l.Latitude, &l.Longitude, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
