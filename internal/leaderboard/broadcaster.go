package leaderboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/internal/realtime"
)

const standingsLimit = 25

// Broadcaster pushes fresh standings to every council room on a fixed tick.
// Councils with no connected viewers cost nothing.
type Broadcaster struct {
	repo     *Repository
	hub      *realtime.Hub
	interval time.Duration
	logger   *zap.Logger
}

// NewBroadcaster creates a leaderboard broadcaster.
func NewBroadcaster(repo *Repository, hub *realtime.Hub, interval time.Duration, logger *zap.Logger) *Broadcaster {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Broadcaster{repo: repo, hub: hub, interval: interval, logger: logger}
}

// Run broadcasts until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.tick(ctx)
		}
	}
}

func (b *Broadcaster) tick(ctx context.Context) {
	for _, councilID := range b.hub.ActiveCouncils() {
		standings, err := b.repo.CouncilStandings(ctx, councilID, standingsLimit)
		if err != nil {
			b.logger.Warn("leaderboard refresh failed",
				zap.Error(err), zap.String("council_id", councilID.String()))
			continue
		}
		b.hub.BroadcastToCouncil(councilID, "leaderboard", standings)
	}
}
