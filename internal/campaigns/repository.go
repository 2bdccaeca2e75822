package campaigns

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

var (
	// ErrNotFound is returned when a campaign does not exist.
	ErrNotFound = errors.New("campaign not found")
	// ErrAlreadySent is returned when a sent campaign is sent again.
	ErrAlreadySent = errors.New("campaign already sent")
)

const campaignColumns = `id, council_id, title, body, channel, troop_id, media_key, status,
	sent_at, recipient_count, created_by, created_at, updated_at`

// Recipient is one campaign delivery target.
type Recipient struct {
	UserID uuid.UUID
	Email  string
}

// Repository handles campaign persistence and recipient resolution.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a campaigns repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a draft campaign.
func (r *Repository) Create(ctx context.Context, cp *models.Campaign) error {
	const q = `INSERT INTO campaigns (id, council_id, title, body, channel, troop_id, created_by, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, 'draft')
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, cp.CouncilID, cp.Title, cp.Body, cp.Channel, cp.TroopID, cp.CreatedBy).
		Scan(&cp.ID, &cp.Status, &cp.CreatedAt, &cp.UpdatedAt)
}

// GetByID returns a campaign by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return scanCampaign(r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
}

// ListByCouncil returns a council's campaigns, newest first.
func (r *Repository) ListByCouncil(ctx context.Context, councilID uuid.UUID) ([]models.Campaign, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE council_id = $1 ORDER BY created_at DESC`, councilID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Campaign
	for rows.Next() {
		var cp models.Campaign
		if err := rows.Scan(&cp.ID, &cp.CouncilID, &cp.Title, &cp.Body, &cp.Channel, &cp.TroopID, &cp.MediaKey,
			&cp.Status, &cp.SentAt, &cp.RecipientCount, &cp.CreatedBy, &cp.CreatedAt, &cp.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, cp)
	}
	return list, rows.Err()
}

// Update edits a draft campaign's content.
func (r *Repository) Update(ctx context.Context, cp *models.Campaign) error {
	const q = `UPDATE campaigns SET title = $2, body = $3, channel = $4, troop_id = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'draft'`
	tag, err := r.pool.Exec(ctx, q, cp.ID, cp.Title, cp.Body, cp.Channel, cp.TroopID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySent
	}
	return nil
}

// SetMediaKey stores the uploaded media object key.
func (r *Repository) SetMediaKey(ctx context.Context, id uuid.UUID, key string) error {
	const q = `UPDATE campaigns SET media_key = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, key)
	return err
}

// MarkSent moves a draft to sent exactly once, recording the audience size.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, recipientCount int) error {
	const q = `UPDATE campaigns SET status = 'sent', sent_at = NOW(), recipient_count = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'draft'`
	tag, err := r.pool.Exec(ctx, q, id, recipientCount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySent
	}
	return nil
}

// Recipients resolves the campaign audience: customers whose cards were sold
// by the council's scouts, narrowed to one troop when targeted.
func (r *Repository) Recipients(ctx context.Context, councilID uuid.UUID, troopID *uuid.UUID) ([]Recipient, error) {
	const q = `SELECT DISTINCT u.id, u.email
		FROM users u
		JOIN subscriptions sub ON sub.user_id = u.id
		JOIN scouts sc ON sc.id = sub.scout_id
		JOIN troops t ON t.id = sc.troop_id
		WHERE t.council_id = $1 AND ($2::uuid IS NULL OR sc.troop_id = $2)
			AND sub.status = 'active'`
	rows, err := r.pool.Query(ctx, q, councilID, troopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Recipient
	for rows.Next() {
		var rec Recipient
		if err := rows.Scan(&rec.UserID, &rec.Email); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	var cp models.Campaign
	err := row.Scan(&cp.ID, &cp.CouncilID, &cp.Title, &cp.Body, &cp.Channel, &cp.TroopID, &cp.MediaKey,
		&cp.Status, &cp.SentAt, &cp.RecipientCount, &cp.CreatedBy, &cp.CreatedAt, &cp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cp, nil
}
