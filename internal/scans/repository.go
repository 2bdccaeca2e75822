package scans

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

// ErrAlreadyResolved is returned when a scan attempt has already left the
// pending state. Resolution happens exactly once; concurrent resolvers lose
// here instead of overwriting the outcome.
var ErrAlreadyResolved = errors.New("scan attempt already resolved")

const scanColumns = `id, offer_id, user_id, redemption_id, redemption_token, scanned_at,
	device_fingerprint, ip_address, user_agent, latitude, longitude,
	scan_result, was_successful, failure_reason, is_suspicious, suspicion_reason,
	merchant_id, merchant_location_id, created_at`

// Repository is the append-only scan attempt log with the diversity and
// velocity queries the abuse evaluator needs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a scan attempts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts a new attempt in the pending state. ScannedAt defaults to
// now when unset. Historical fields are never updated afterwards.
func (r *Repository) Record(ctx context.Context, s *models.ScanAttempt) error {
	if s.ScannedAt.IsZero() {
		s.ScannedAt = time.Now()
	}
	s.Result = models.ScanPending
	const q = `INSERT INTO offer_scan_attempts
			(id, offer_id, user_id, redemption_token, scanned_at, device_fingerprint, ip_address, user_agent,
			 latitude, longitude, merchant_id, merchant_location_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, s.OfferID, s.UserID, s.RedemptionToken, s.ScannedAt,
		s.DeviceFingerprint, s.IPAddress, s.UserAgent, s.Latitude, s.Longitude, s.MerchantID, s.MerchantLocationID).
		Scan(&s.ID, &s.CreatedAt)
}

// Resolve sets the scan outcome exactly once. The pending-state guard makes
// concurrent double-resolution a conflict rather than a lost update.
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID, result models.ScanResult, wasSuccessful bool, failureReason *string, redemptionID *uuid.UUID) error {
	const q = `UPDATE offer_scan_attempts
		SET scan_result = $2, was_successful = $3, failure_reason = $4, redemption_id = COALESCE($5, redemption_id)
		WHERE id = $1 AND scan_result = 'pending'`
	tag, err := r.pool.Exec(ctx, q, id, result, wasSuccessful, failureReason, redemptionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyResolved
	}
	return nil
}

// FlagSuspicious resolves a pending scan as flagged with the given reason.
func (r *Repository) FlagSuspicious(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE offer_scan_attempts
		SET scan_result = 'flagged', was_successful = FALSE, is_suspicious = TRUE, suspicion_reason = $2
		WHERE id = $1 AND scan_result = 'pending'`
	tag, err := r.pool.Exec(ctx, q, id, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyResolved
	}
	return nil
}

// MarkSuspicious records suspicion on an attempt without changing its result.
// Used when a merchant-level signal fires on an otherwise successful scan.
func (r *Repository) MarkSuspicious(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `UPDATE offer_scan_attempts
		SET is_suspicious = TRUE, suspicion_reason = $2
		WHERE id = $1 AND is_suspicious = FALSE`
	_, err := r.pool.Exec(ctx, q, id, reason)
	return err
}

// GetByID returns a scan attempt by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.ScanAttempt, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scanColumns+` FROM offer_scan_attempts WHERE id = $1`, id)
	return scanAttempt(row)
}

// ListByToken returns all attempts for a redemption token, newest first.
func (r *Repository) ListByToken(ctx context.Context, token string) ([]models.ScanAttempt, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+scanColumns+` FROM offer_scan_attempts WHERE redemption_token = $1 ORDER BY scanned_at DESC`, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttempts(rows)
}

// CountDistinctDevices returns the number of distinct device fingerprints
// recorded against a token.
func (r *Repository) CountDistinctDevices(ctx context.Context, token string) (int, error) {
	const q = `SELECT COUNT(DISTINCT device_fingerprint) FROM offer_scan_attempts
		WHERE redemption_token = $1 AND device_fingerprint IS NOT NULL`
	var n int
	err := r.pool.QueryRow(ctx, q, token).Scan(&n)
	return n, err
}

// CountDistinctIPs returns the number of distinct IP addresses recorded
// against a token.
func (r *Repository) CountDistinctIPs(ctx context.Context, token string) (int, error) {
	const q = `SELECT COUNT(DISTINCT ip_address) FROM offer_scan_attempts
		WHERE redemption_token = $1 AND ip_address IS NOT NULL`
	var n int
	err := r.pool.QueryRow(ctx, q, token).Scan(&n)
	return n, err
}

// CountMerchantScans returns a merchant's scan count since the given instant.
func (r *Repository) CountMerchantScans(ctx context.Context, merchantID uuid.UUID, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM offer_scan_attempts WHERE merchant_id = $1 AND scanned_at >= $2`
	var n int
	err := r.pool.QueryRow(ctx, q, merchantID, since).Scan(&n)
	return n, err
}

// CountDistinctMerchantUsers returns how many distinct users a merchant has
// scanned since the given instant.
func (r *Repository) CountDistinctMerchantUsers(ctx context.Context, merchantID uuid.UUID, since time.Time) (int, error) {
	const q = `SELECT COUNT(DISTINCT user_id) FROM offer_scan_attempts WHERE merchant_id = $1 AND scanned_at >= $2`
	var n int
	err := r.pool.QueryRow(ctx, q, merchantID, since).Scan(&n)
	return n, err
}

// RecentGeoScans returns the latest geo-tagged attempts for a token, newest
// first, up to limit.
func (r *Repository) RecentGeoScans(ctx context.Context, token string, limit int) ([]models.ScanAttempt, error) {
	const q = `SELECT ` + scanColumns + ` FROM offer_scan_attempts
		WHERE redemption_token = $1 AND latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY scanned_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, token, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttempts(rows)
}

func scanAttempt(row pgx.Row) (*models.ScanAttempt, error) {
	var s models.ScanAttempt
	err := row.Scan(&s.ID, &s.OfferID, &s.UserID, &s.RedemptionID, &s.RedemptionToken, &s.ScannedAt,
		&s.DeviceFingerprint, &s.IPAddress, &s.UserAgent, &s.Latitude, &s.Longitude,
		&s.Result, &s.WasSuccessful, &s.FailureReason, &s.IsSuspicious, &s.SuspicionReason,
		&s.MerchantID, &s.MerchantLocationID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectAttempts(rows pgx.Rows) ([]models.ScanAttempt, error) {
	var list []models.ScanAttempt
	for rows.Next() {
		var s models.ScanAttempt
		if err := rows.Scan(&s.ID, &s.OfferID, &s.UserID, &s.RedemptionID, &s.RedemptionToken, &s.ScannedAt,
			&s.DeviceFingerprint, &s.IPAddress, &s.UserAgent, &s.Latitude, &s.Longitude,
			&s.Result, &s.WasSuccessful, &s.FailureReason, &s.IsSuspicious, &s.SuspicionReason,
			&s.MerchantID, &s.MerchantLocationID, &s.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
