package offers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// ErrNotFound is returned when an offer does not exist.
var ErrNotFound = errors.New("offer not found")

const offerColumns = `id, merchant_id, title, description, discount_type, discount_value,
	min_purchase_cents, max_discount_cents, valid_from, valid_until,
	usage_limit, usage_limit_per_user, total_redemptions, status, image_key, created_at, updated_at`

// Repository handles offer persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an offers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOffer(row pgx.Row) (*models.Offer, error) {
	var o models.Offer
	err := row.Scan(&o.ID, &o.MerchantID, &o.Title, &o.Description, &o.DiscountType, &o.DiscountValue,
		&o.MinPurchaseCents, &o.MaxDiscountCents, &o.ValidFrom, &o.ValidUntil,
		&o.UsageLimit, &o.UsageLimitPerUser, &o.TotalRedemptions, &o.Status, &o.ImageKey, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// Create inserts a new offer (draft by default).
func (r *Repository) Create(ctx context.Context, o *models.Offer) error {
	const q = `INSERT INTO offers (id, merchant_id, title, description, discount_type, discount_value,
			min_purchase_cents, max_discount_cents, valid_from, valid_until, usage_limit, usage_limit_per_user, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, total_redemptions, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, o.MerchantID, o.Title, o.Description, o.DiscountType, o.DiscountValue,
		o.MinPurchaseCents, o.MaxDiscountCents, o.ValidFrom, o.ValidUntil, o.UsageLimit, o.UsageLimitPerUser, o.Status).
		Scan(&o.ID, &o.TotalRedemptions, &o.CreatedAt, &o.UpdatedAt)
}

// GetByID returns an offer by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	return scanOffer(r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
}

// ListByMerchant returns all offers for a merchant.
func (r *Repository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.Offer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+offerColumns+` FROM offers WHERE merchant_id = $1 ORDER BY created_at DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

// ListActive returns currently redeemable offers for card-holder browsing.
func (r *Repository) ListActive(ctx context.Context) ([]models.Offer, error) {
	const q = `SELECT ` + offerColumns + ` FROM offers
		WHERE status = 'active' AND valid_from < NOW() AND valid_until > NOW()
		ORDER BY valid_until ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOffers(rows)
}

func collectOffers(rows pgx.Rows) ([]models.Offer, error) {
	var list []models.Offer
	for rows.Next() {
		var o models.Offer
		if err := rows.Scan(&o.ID, &o.MerchantID, &o.Title, &o.Description, &o.DiscountType, &o.DiscountValue,
			&o.MinPurchaseCents, &o.MaxDiscountCents, &o.ValidFrom, &o.ValidUntil,
			&o.UsageLimit, &o.UsageLimitPerUser, &o.TotalRedemptions, &o.Status, &o.ImageKey, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// UpdateStatus moves an offer between draft/active/paused/suspended.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OfferStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE offers SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Update updates offer terms.
func (r *Repository) Update(ctx context.Context, o *models.Offer) error {
	const q = `UPDATE offers SET title = $2, description = $3, discount_type = $4, discount_value = $5,
			min_purchase_cents = $6, max_discount_cents = $7, valid_from = $8, valid_until = $9,
			usage_limit = $10, usage_limit_per_user = $11, updated_at = NOW()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, o.ID, o.Title, o.Description, o.DiscountType, o.DiscountValue,
		o.MinPurchaseCents, o.MaxDiscountCents, o.ValidFrom, o.ValidUntil, o.UsageLimit, o.UsageLimitPerUser)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireDue sweeps active offers past their validity window. Run by the worker.
func (r *Repository) ExpireDue(ctx context.Context) (int64, error) {
	const q = `UPDATE offers SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND valid_until <= NOW()`
	tag, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SetImageKey stores the S3 object key for the offer image.
func (r *Repository) SetImageKey(ctx context.Context, id uuid.UUID, key string) error {
	_, err := r.pool.Exec(ctx, `UPDATE offers SET image_key = $2, updated_at = NOW() WHERE id = $1`, id, key)
	return err
}
