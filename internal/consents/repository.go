package consents

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
)

var (
	// ErrNotFound is returned when no consent request matches.
	ErrNotFound = errors.New("consent request not found")
	// ErrAlreadyResolved is returned when the token was already used. Tokens
	// are single-use; a second click cannot change the recorded answer.
	ErrAlreadyResolved = errors.New("consent request already resolved")
	// ErrExpired is returned when the token is past its expiry.
	ErrExpired = errors.New("consent request expired")
)

const consentColumns = `id, scout_id, parent_email, parent_name, token, status, expires_at, resolved_at, created_at`

// Repository handles consent request persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a consents repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending consent request.
func (r *Repository) Create(ctx context.Context, req *models.ConsentRequest) error {
	const q = `INSERT INTO consent_requests (id, scout_id, parent_email, parent_name, token, status, expires_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, 'pending', $5)
		RETURNING id, status, created_at`
	return r.pool.QueryRow(ctx, q, req.ScoutID, req.ParentEmail, req.ParentName, req.Token, req.ExpiresAt).
		Scan(&req.ID, &req.Status, &req.CreatedAt)
}

// GetByToken returns a consent request by its emailed token.
func (r *Repository) GetByToken(ctx context.Context, token string) (*models.ConsentRequest, error) {
	return scanConsent(r.pool.QueryRow(ctx, `SELECT `+consentColumns+` FROM consent_requests WHERE token = $1`, token))
}

// ListByScout returns a scout's consent requests, newest first.
func (r *Repository) ListByScout(ctx context.Context, scoutID uuid.UUID) ([]models.ConsentRequest, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+consentColumns+` FROM consent_requests WHERE scout_id = $1 ORDER BY created_at DESC`, scoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.ConsentRequest
	for rows.Next() {
		var cr models.ConsentRequest
		if err := rows.Scan(&cr.ID, &cr.ScoutID, &cr.ParentEmail, &cr.ParentName, &cr.Token,
			&cr.Status, &cr.ExpiresAt, &cr.ResolvedAt, &cr.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, cr)
	}
	return list, rows.Err()
}

// Resolve consumes a pending token, recording the parent's answer. The
// pending-state guard makes the token single-use under concurrency.
func (r *Repository) Resolve(ctx context.Context, token, status string) (*models.ConsentRequest, error) {
	const q = `UPDATE consent_requests
		SET status = $2, resolved_at = NOW()
		WHERE token = $1 AND status = 'pending' AND expires_at > NOW()
		RETURNING ` + consentColumns
	cr, err := scanConsent(r.pool.QueryRow(ctx, q, token, status))
	if err == nil {
		return cr, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	// distinguish missing vs used vs expired
	existing, lookErr := r.GetByToken(ctx, token)
	if lookErr != nil {
		return nil, lookErr
	}
	if existing.Status != models.ConsentStatusPending {
		return nil, ErrAlreadyResolved
	}
	return nil, ErrExpired
}

// ExpireDue sweeps pending requests past expiry. Run by the worker.
func (r *Repository) ExpireDue(ctx context.Context) (int64, error) {
	const q = `UPDATE consent_requests SET status = 'expired', resolved_at = NOW()
		WHERE status = 'pending' AND expires_at <= NOW()`
	tag, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanConsent(row pgx.Row) (*models.ConsentRequest, error) {
	var cr models.ConsentRequest
	err := row.Scan(&cr.ID, &cr.ScoutID, &cr.ParentEmail, &cr.ParentName, &cr.Token,
		&cr.Status, &cr.ExpiresAt, &cr.ResolvedAt, &cr.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cr, nil
}
