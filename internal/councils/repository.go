package councils

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// ErrNotFound is returned when a council does not exist.
var ErrNotFound = errors.New("council not found")

// Repository handles council and council membership persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a councils repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new council.
func (r *Repository) Create(ctx context.Context, col *models.Council) error {
	const q = `INSERT INTO councils (id, name, slug, city, state)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, col.Name, col.Slug, col.City, col.State).
		Scan(&col.ID, &col.CreatedAt, &col.UpdatedAt)
}

// GetByID returns a council by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Council, error) {
	const q = `SELECT id, name, slug, city, state, created_at, updated_at FROM councils WHERE id = $1`
	var col models.Council
	err := r.pool.QueryRow(ctx, q, id).Scan(&col.ID, &col.Name, &col.Slug, &col.City, &col.State, &col.CreatedAt, &col.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &col, nil
}

// GetBySlug returns a council by its URL slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Council, error) {
	const q = `SELECT id, name, slug, city, state, created_at, updated_at FROM councils WHERE slug = $1`
	var col models.Council
	err := r.pool.QueryRow(ctx, q, slug).Scan(&col.ID, &col.Name, &col.Slug, &col.City, &col.State, &col.CreatedAt, &col.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &col, nil
}

// List returns all councils.
func (r *Repository) List(ctx context.Context) ([]models.Council, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug, city, state, created_at, updated_at FROM councils ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Council
	for rows.Next() {
		var col models.Council
		if err := rows.Scan(&col.ID, &col.Name, &col.Slug, &col.City, &col.State, &col.CreatedAt, &col.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, col)
	}
	return list, rows.Err()
}

// Update updates council profile fields.
func (r *Repository) Update(ctx context.Context, col *models.Council) error {
	const q = `UPDATE councils SET name = $2, city = $3, state = $4, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, col.ID, col.Name, col.City, col.State)
	return err
}

// AddMember attaches a user to a council. Idempotent; re-adding updates the
// membership role.
func (r *Repository) AddMember(ctx context.Context, councilID, userID uuid.UUID, role string) error {
	const q = `INSERT INTO council_users (council_id, user_id, role) VALUES ($1, $2, $3)
		ON CONFLICT (council_id, user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, councilID, userID, role)
	return err
}

// IsMember reports whether a user belongs to a council.
func (r *Repository) IsMember(ctx context.Context, councilID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM council_users WHERE council_id = $1 AND user_id = $2)`
	var ok bool
	err := r.pool.QueryRow(ctx, q, councilID, userID).Scan(&ok)
	return ok, err
}
