package troops

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// ErrNotFound is returned when a troop does not exist.
var ErrNotFound = errors.New("troop not found")

// Repository handles troop persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a troops repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new troop.
func (r *Repository) Create(ctx context.Context, t *models.Troop) error {
	const q = `INSERT INTO troops (id, council_id, number, name, leader_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.CouncilID, t.Number, t.Name, t.LeaderID).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a troop by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Troop, error) {
	const q = `SELECT id, council_id, number, name, leader_id, created_at, updated_at FROM troops WHERE id = $1`
	var t models.Troop
	err := r.pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.CouncilID, &t.Number, &t.Name, &t.LeaderID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListByCouncil returns a council's troops ordered by number.
func (r *Repository) ListByCouncil(ctx context.Context, councilID uuid.UUID) ([]models.Troop, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, council_id, number, name, leader_id, created_at, updated_at FROM troops WHERE council_id = $1 ORDER BY number`, councilID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Troop
	for rows.Next() {
		var t models.Troop
		if err := rows.Scan(&t.ID, &t.CouncilID, &t.Number, &t.Name, &t.LeaderID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// ListByLeader returns troops led by the given user.
func (r *Repository) ListByLeader(ctx context.Context, leaderID uuid.UUID) ([]models.Troop, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, council_id, number, name, leader_id, created_at, updated_at FROM troops WHERE leader_id = $1 ORDER BY number`, leaderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Troop
	for rows.Next() {
		var t models.Troop
		if err := rows.Scan(&t.ID, &t.CouncilID, &t.Number, &t.Name, &t.LeaderID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update updates troop fields including leader assignment.
func (r *Repository) Update(ctx context.Context, t *models.Troop) error {
	const q = `UPDATE troops SET number = $2, name = $3, leader_id = $4, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, t.ID, t.Number, t.Name, t.LeaderID)
	return err
}
