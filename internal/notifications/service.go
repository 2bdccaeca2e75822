package notifications

import (
	"context"

	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/queue"
)

// Service records a notification row and enqueues its delivery job. Callers
// treat sends as fire-and-forget: an enqueue failure is logged, never
// propagated into the business operation that triggered it.
type Service struct {
	repo   *Repository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewService creates a notification service.
func NewService(repo *Repository, q *queue.Queue, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, queue: q, logger: logger}
}

// Notify persists the notification and hands it to the worker queue.
func (s *Service) Notify(ctx context.Context, n *models.Notification) {
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("create notification failed", zap.Error(err), zap.String("type", n.Type))
		return
	}
	if s.queue == nil {
		return
	}
	if err := s.queue.EnqueueNotification(ctx, queue.NotificationPayload{NotificationID: n.ID}); err != nil {
		s.logger.Error("enqueue notification failed", zap.Error(err), zap.String("notification_id", n.ID.String()))
	}
}
