package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// Repository handles notification persistence. Rows double as the outbound
// send audit log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a notifications repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a queued notification.
func (r *Repository) Create(ctx context.Context, n *models.Notification) error {
	const q = `INSERT INTO notifications (id, type, channel, recipient_id, recipient, subject, body, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, 'queued')
		RETURNING id, status, created_at`
	return r.pool.QueryRow(ctx, q, n.Type, n.Channel, n.RecipientID, n.Recipient, n.Subject, n.Body).
		Scan(&n.ID, &n.Status, &n.CreatedAt)
}

// GetByID returns a notification by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	const q = `SELECT id, type, channel, recipient_id, recipient, subject, body, status, sent_at, error_message, created_at
		FROM notifications WHERE id = $1`
	var n models.Notification
	err := r.pool.QueryRow(ctx, q, id).Scan(&n.ID, &n.Type, &n.Channel, &n.RecipientID, &n.Recipient,
		&n.Subject, &n.Body, &n.Status, &n.SentAt, &n.ErrorMessage, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkSent sets sent status and timestamp.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE notifications SET status = 'sent', sent_at = NOW() WHERE id = $1 AND status = 'queued'`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// MarkFailed records a delivery failure.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	const q = `UPDATE notifications SET status = 'failed', error_message = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, errMsg)
	return err
}

// ListByRecipient returns a user's notifications, newest first.
func (r *Repository) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.Notification, error) {
	const q = `SELECT id, type, channel, recipient_id, recipient, subject, body, status, sent_at, error_message, created_at
		FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Channel, &n.RecipientID, &n.Recipient,
			&n.Subject, &n.Body, &n.Status, &n.SentAt, &n.ErrorMessage, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}
