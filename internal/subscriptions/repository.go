package subscriptions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// ErrNotFound is returned when a subscription does not exist.
var ErrNotFound = errors.New("subscription not found")

const subscriptionColumns = `id, user_id, scout_id, card_number, plan, price_cents, status,
	starts_at, expires_at, created_at, updated_at`

// Repository handles subscription persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a subscriptions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending subscription. Activation happens after payment.
func (r *Repository) Create(ctx context.Context, s *models.Subscription) error {
	const q = `INSERT INTO subscriptions (id, user_id, scout_id, card_number, plan, price_cents, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, 'pending')
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.UserID, s.ScoutID, s.CardNumber, s.Plan, s.PriceCents).
		Scan(&s.ID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns a subscription by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	return scanSubscription(r.pool.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
}

// ListByUser returns a user's subscriptions, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Subscription
	for rows.Next() {
		var s models.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.ScoutID, &s.CardNumber, &s.Plan, &s.PriceCents,
			&s.Status, &s.StartsAt, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// HasActive reports whether the user holds an unexpired active card.
func (r *Repository) HasActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM subscriptions
		WHERE user_id = $1 AND status = 'active' AND (expires_at IS NULL OR expires_at > NOW()))`
	var ok bool
	err := r.pool.QueryRow(ctx, q, userID).Scan(&ok)
	return ok, err
}

// Activate moves a pending subscription to active with its validity window.
// Only fires once per subscription; webhook retries become no-ops.
func (r *Repository) Activate(ctx context.Context, id uuid.UUID, months int) (bool, error) {
	const q = `UPDATE subscriptions
		SET status = 'active', starts_at = NOW(), expires_at = NOW() + make_interval(months => $2), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`
	tag, err := r.pool.Exec(ctx, q, id, months)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Cancel marks a subscription cancelled.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE subscriptions SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'active')`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireDue sweeps active subscriptions past their expiry. Run by the worker.
func (r *Repository) ExpireDue(ctx context.Context) (int64, error) {
	const q = `UPDATE subscriptions SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at <= NOW()`
	tag, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var s models.Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.ScoutID, &s.CardNumber, &s.Plan, &s.PriceCents,
		&s.Status, &s.StartsAt, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
