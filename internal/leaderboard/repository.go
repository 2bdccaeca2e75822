package leaderboard

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one scout's standing in a sales leaderboard.
type Entry struct {
	Rank        int       `json:"rank"`
	ScoutID     uuid.UUID `json:"scout_id"`
	ScoutName   string    `json:"scout_name"`
	TroopID     uuid.UUID `json:"troop_id"`
	TroopNumber string    `json:"troop_number"`
	CardsSold   int       `json:"cards_sold"`
}

// Repository aggregates card sales into standings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a leaderboard repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CouncilStandings returns the council's top sellers.
func (r *Repository) CouncilStandings(ctx context.Context, councilID uuid.UUID, limit int) ([]Entry, error) {
	const q = `SELECT sc.id, u.full_name, t.id, t.number, sc.cards_sold
		FROM scouts sc
		JOIN users u ON u.id = sc.user_id
		JOIN troops t ON t.id = sc.troop_id
		WHERE t.council_id = $1 AND sc.status = 'active'
		ORDER BY sc.cards_sold DESC, u.full_name
		LIMIT $2`
	return r.collect(ctx, q, councilID, limit)
}

// TroopStandings returns the troop's top sellers.
func (r *Repository) TroopStandings(ctx context.Context, troopID uuid.UUID, limit int) ([]Entry, error) {
	const q = `SELECT sc.id, u.full_name, t.id, t.number, sc.cards_sold
		FROM scouts sc
		JOIN users u ON u.id = sc.user_id
		JOIN troops t ON t.id = sc.troop_id
		WHERE sc.troop_id = $1 AND sc.status = 'active'
		ORDER BY sc.cards_sold DESC, u.full_name
		LIMIT $2`
	return r.collect(ctx, q, troopID, limit)
}

func (r *Repository) collect(ctx context.Context, q string, id uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := r.pool.Query(ctx, q, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ScoutID, &e.ScoutName, &e.TroopID, &e.TroopNumber, &e.CardsSold); err != nil {
			return nil, err
		}
		e.Rank = len(list) + 1
		list = append(list, e)
	}
	return list, rows.Err()
}
