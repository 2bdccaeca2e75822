package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// ErrNotFound is returned when a payment does not exist.
var ErrNotFound = errors.New("payment not found")

const paymentColumns = `id, subscription_id, provider, provider_payment_id, amount_cents, currency,
	status, refunded_at, created_at, updated_at`

// Repository handles payment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a payments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending payment.
func (r *Repository) Create(ctx context.Context, p *models.Payment) error {
	const q = `INSERT INTO payments (id, subscription_id, provider, provider_payment_id, amount_cents, currency, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, 'pending')
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.SubscriptionID, p.Provider, p.ProviderPaymentID, p.AmountCents, p.Currency).
		Scan(&p.ID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}

// GetByProviderID returns a payment by the provider's payment ID.
func (r *Repository) GetByProviderID(ctx context.Context, providerPaymentID string) (*models.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE provider_payment_id = $1`, providerPaymentID))
}

// ListBySubscription returns a subscription's payments, newest first.
func (r *Repository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]models.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE subscription_id = $1 ORDER BY created_at DESC`, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.SubscriptionID, &p.Provider, &p.ProviderPaymentID, &p.AmountCents,
			&p.Currency, &p.Status, &p.RefundedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// MarkCompleted moves a pending payment to completed. Reports whether this
// call made the move, so webhook retries do not double-apply side effects.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE payments SET status = 'completed', updated_at = NOW() WHERE id = $1 AND status = 'pending'`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkFailed moves a pending payment to failed.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE payments SET status = 'failed', updated_at = NOW() WHERE id = $1 AND status = 'pending'`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// MarkRefunded records a refund.
func (r *Repository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE payments SET status = 'refunded', refunded_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'completed'`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.SubscriptionID, &p.Provider, &p.ProviderPaymentID, &p.AmountCents,
		&p.Currency, &p.Status, &p.RefundedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
