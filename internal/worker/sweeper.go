package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/internal/consents"
	"github.com/SwipeSavdev/camp-card-sub005/internal/offers"
	"github.com/SwipeSavdev/camp-card-sub005/internal/subscriptions"
)

// Sweeper runs periodic expiry passes: subscriptions past their term, offers
// past their window, and consent requests past their token lifetime.
type Sweeper struct {
	subs     *subscriptions.Repository
	offers   *offers.Repository
	consents *consents.Repository
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates an expiry sweeper.
func NewSweeper(subs *subscriptions.Repository, offerRepo *offers.Repository,
	consentRepo *consents.Repository, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{subs: subs, offers: offerRepo, consents: consentRepo, interval: interval, logger: logger}
}

// Run sweeps until the context is cancelled. Sweeps once immediately on start.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if n, err := s.subs.ExpireDue(ctx); err != nil {
		s.logger.Error("expire subscriptions failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("subscriptions expired", zap.Int64("count", n))
	}
	if n, err := s.offers.ExpireDue(ctx); err != nil {
		s.logger.Error("expire offers failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("offers expired", zap.Int64("count", n))
	}
	if n, err := s.consents.ExpireDue(ctx); err != nil {
		s.logger.Error("expire consent requests failed", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("consent requests expired", zap.Int64("count", n))
	}
}
