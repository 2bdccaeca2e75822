package scouts

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// ErrNotFound is returned when a scout does not exist.
var ErrNotFound = errors.New("scout not found")

// referral codes are shared verbally and printed on order forms, so the
// alphabet drops ambiguous characters (0/O, 1/I/L).
const referralAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateReferralCode returns a short code like "CAMP-7XK2QF".
func GenerateReferralCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	out := make([]byte, 0, 11)
	out = append(out, "CAMP-"...)
	for _, b := range buf {
		out = append(out, referralAlphabet[int(b)%len(referralAlphabet)])
	}
	return string(out), nil
}

const scoutColumns = `id, troop_id, user_id, referral_code, cards_sold, status, created_at, updated_at`

// Repository handles scout persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a scouts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a scout in pending_consent. Selling is gated on parental
// consent approval.
func (r *Repository) Create(ctx context.Context, s *models.Scout) error {
	const q = `INSERT INTO scouts (id, troop_id, user_id, referral_code, status)
		VALUES (gen_random_uuid(), $1, $2, $3, 'pending_consent')
		RETURNING id, cards_sold, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.TroopID, s.UserID, s.ReferralCode).
		Scan(&s.ID, &s.CardsSold, &s.Status, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns a scout by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Scout, error) {
	return scanScout(r.pool.QueryRow(ctx, `SELECT `+scoutColumns+` FROM scouts WHERE id = $1`, id))
}

// GetByUser returns the scout record for a user account.
func (r *Repository) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Scout, error) {
	return scanScout(r.pool.QueryRow(ctx, `SELECT `+scoutColumns+` FROM scouts WHERE user_id = $1`, userID))
}

// GetByReferralCode returns the scout owning a referral code. Used to
// attribute card sales.
func (r *Repository) GetByReferralCode(ctx context.Context, code string) (*models.Scout, error) {
	return scanScout(r.pool.QueryRow(ctx, `SELECT `+scoutColumns+` FROM scouts WHERE referral_code = $1`, code))
}

// ListByTroop returns a troop's scouts ordered by cards sold.
func (r *Repository) ListByTroop(ctx context.Context, troopID uuid.UUID) ([]models.Scout, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+scoutColumns+` FROM scouts WHERE troop_id = $1 ORDER BY cards_sold DESC, created_at`, troopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Scout
	for rows.Next() {
		var s models.Scout
		if err := rows.Scan(&s.ID, &s.TroopID, &s.UserID, &s.ReferralCode, &s.CardsSold, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// SetStatus updates a scout's status.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.ScoutStatus) error {
	const q = `UPDATE scouts SET status = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementCardsSold credits one card sale to the scout.
func (r *Repository) IncrementCardsSold(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE scouts SET cards_sold = cards_sold + 1, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func scanScout(row pgx.Row) (*models.Scout, error) {
	var s models.Scout
	err := row.Scan(&s.ID, &s.TroopID, &s.UserID, &s.ReferralCode, &s.CardsSold, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
