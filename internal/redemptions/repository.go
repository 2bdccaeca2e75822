package redemptions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

var (
	// ErrNotFound is returned when a redemption does not exist.
	ErrNotFound = errors.New("redemption not found")
	// ErrInvalidState is returned when a transition guard rejects the move.
	// Callers should re-fetch current state rather than retry blindly.
	ErrInvalidState = errors.New("invalid redemption state transition")
	// ErrAlreadyRedeemed is returned when a token claim loses the race:
	// some other scan already moved the redemption out of pending.
	ErrAlreadyRedeemed = errors.New("redemption token already claimed")
	// ErrUsageLimitReached is returned when the offer's global usage limit
	// is exhausted at claim time.
	ErrUsageLimitReached = errors.New("offer usage limit reached")
	// ErrPerUserLimitReached is returned when the user already holds their
	// allowed number of verified/completed redemptions for the offer.
	ErrPerUserLimitReached = errors.New("per-user redemption limit reached")
)

const redemptionColumns = `id, offer_id, user_id, merchant_id, merchant_location_id,
	purchase_cents, discount_cents, final_cents, verification_code, redemption_token,
	status, redeemed_at, verified_at, verified_by, notes, created_at, updated_at`

// Repository handles offer redemption persistence. Every state transition is
// a compare-and-set on the current status so concurrent writers cannot
// regress or double-apply a move.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a redemptions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending redemption with its token and verification code.
func (r *Repository) Create(ctx context.Context, red *models.OfferRedemption) error {
	const q = `INSERT INTO offer_redemptions
			(id, offer_id, user_id, merchant_id, merchant_location_id, verification_code, redemption_token, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, 'pending')
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, red.OfferID, red.UserID, red.MerchantID, red.MerchantLocationID,
		red.VerificationCode, red.RedemptionToken).
		Scan(&red.ID, &red.Status, &red.CreatedAt, &red.UpdatedAt)
}

// GetByID returns a redemption by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.OfferRedemption, error) {
	return scanRedemption(r.pool.QueryRow(ctx, `SELECT `+redemptionColumns+` FROM offer_redemptions WHERE id = $1`, id))
}

// GetByToken returns a redemption by its QR token.
func (r *Repository) GetByToken(ctx context.Context, token string) (*models.OfferRedemption, error) {
	return scanRedemption(r.pool.QueryRow(ctx, `SELECT `+redemptionColumns+` FROM offer_redemptions WHERE redemption_token = $1`, token))
}

// GetByCode returns a redemption by its human-readable verification code.
// Backs the manual entry path when a QR scan is not possible.
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.OfferRedemption, error) {
	return scanRedemption(r.pool.QueryRow(ctx, `SELECT `+redemptionColumns+` FROM offer_redemptions WHERE verification_code = $1`, code))
}

// ListByUser returns a user's redemptions, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.OfferRedemption, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+redemptionColumns+` FROM offer_redemptions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRedemptions(rows)
}

// ListByMerchant returns a merchant's redemptions, newest first.
func (r *Repository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]models.OfferRedemption, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+redemptionColumns+` FROM offer_redemptions WHERE merchant_id = $1 ORDER BY created_at DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRedemptions(rows)
}

// CountByOfferAndUser returns the user's verified/completed redemption count
// for an offer. Feeds the per-user limit in the validity checker.
func (r *Repository) CountByOfferAndUser(ctx context.Context, offerID, userID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM offer_redemptions
		WHERE offer_id = $1 AND user_id = $2 AND status IN ('verified', 'completed')`
	var n int
	err := r.pool.QueryRow(ctx, q, offerID, userID).Scan(&n)
	return n, err
}

// Complete moves a redemption verified -> completed with the final amounts.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID, purchaseCents, discountCents, finalCents int) error {
	const q = `UPDATE offer_redemptions
		SET status = 'completed', purchase_cents = $2, discount_cents = $3, final_cents = $4,
			redeemed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'verified'`
	return r.guarded(ctx, q, id, purchaseCents, discountCents, finalCents)
}

// Cancel moves any non-terminal redemption to cancelled.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE offer_redemptions
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'verified')`
	return r.guarded(ctx, q, id)
}

// Expire moves any non-terminal redemption to expired.
func (r *Repository) Expire(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE offer_redemptions
		SET status = 'expired', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'verified')`
	return r.guarded(ctx, q, id)
}

// guarded runs a compare-and-set update and distinguishes "row missing" from
// "row in the wrong state" for the caller's error mapping.
func (r *Repository) guarded(ctx context.Context, q string, id uuid.UUID, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, q, append([]interface{}{id}, args...)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM offer_redemptions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrInvalidState
	}
	return nil
}

// ClaimByToken atomically claims a pending redemption for a successful scan.
// Losers of a concurrent claim get ErrAlreadyRedeemed; exhausted limits roll
// the claim back. This is the only path that moves a redemption to verified.
func (r *Repository) ClaimByToken(ctx context.Context, token string, verifierID uuid.UUID) (*models.OfferRedemption, error) {
	return r.claim(ctx, "redemption_token", token, verifierID)
}

// ClaimByCode is the manual-entry equivalent of ClaimByToken: the merchant
// types the customer's verification code instead of scanning the QR. Same
// transaction, same limit guards.
func (r *Repository) ClaimByCode(ctx context.Context, code string, verifierID uuid.UUID) (*models.OfferRedemption, error) {
	return r.claim(ctx, "verification_code", code, verifierID)
}

// claim runs the claim transaction: lock the redemption row, bump the offer's
// counter under its usage limit (the offer-row lock serializes concurrent
// claims for the same offer), enforce the per-user limit against committed
// rows, then compare-and-set pending -> verified. The limit checks and the
// status move commit together or not at all, so neither the global nor the
// per-user cap can be exceeded by concurrent claims.
func (r *Repository) claim(ctx context.Context, field, value string, verifierID uuid.UUID) (*models.OfferRedemption, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	lock := `SELECT ` + redemptionColumns + ` FROM offer_redemptions WHERE ` + field + ` = $1 FOR UPDATE`
	red, err := scanRedemption(tx.QueryRow(ctx, lock, value))
	if err != nil {
		return nil, err
	}
	if red.Status != models.RedemptionPending {
		return nil, ErrAlreadyRedeemed
	}

	const bump = `UPDATE offers
		SET total_redemptions = total_redemptions + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit IS NULL OR total_redemptions < usage_limit)
		RETURNING usage_limit_per_user`
	var perUserLimit *int
	if err := tx.QueryRow(ctx, bump, red.OfferID).Scan(&perUserLimit); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUsageLimitReached
		}
		return nil, err
	}

	if perUserLimit != nil {
		const used = `SELECT COUNT(*) FROM offer_redemptions
			WHERE offer_id = $1 AND user_id = $2 AND status IN ('verified', 'completed')`
		var n int
		if err := tx.QueryRow(ctx, used, red.OfferID, red.UserID).Scan(&n); err != nil {
			return nil, err
		}
		if n >= *perUserLimit {
			return nil, ErrPerUserLimitReached
		}
	}

	const verify = `UPDATE offer_redemptions
		SET status = 'verified', verified_at = NOW(), verified_by = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + redemptionColumns
	claimed, err := scanRedemption(tx.QueryRow(ctx, verify, red.ID, verifierID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAlreadyRedeemed
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return claimed, nil
}

func scanRedemption(row pgx.Row) (*models.OfferRedemption, error) {
	var red models.OfferRedemption
	err := row.Scan(&red.ID, &red.OfferID, &red.UserID, &red.MerchantID, &red.MerchantLocationID,
		&red.PurchaseCents, &red.DiscountCents, &red.FinalCents, &red.VerificationCode, &red.RedemptionToken,
		&red.Status, &red.RedeemedAt, &red.VerifiedAt, &red.VerifiedBy, &red.Notes, &red.CreatedAt, &red.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &red, nil
}

func collectRedemptions(rows pgx.Rows) ([]models.OfferRedemption, error) {
	var list []models.OfferRedemption
	for rows.Next() {
		var red models.OfferRedemption
		if err := rows.Scan(&red.ID, &red.OfferID, &red.UserID, &red.MerchantID, &red.MerchantLocationID,
			&red.PurchaseCents, &red.DiscountCents, &red.FinalCents, &red.VerificationCode, &red.RedemptionToken,
			&red.Status, &red.RedeemedAt, &red.VerifiedAt, &red.VerifiedBy, &red.Notes, &red.CreatedAt, &red.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, red)
	}
	return list, rows.Err()
}
