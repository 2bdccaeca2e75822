package consents

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/config"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/internal/notifications"
	"github.com/SwipeSavdev/camp-card-sub005/internal/scouts"
)

// Service runs the parental consent flow: open a request, email the parent a
// single-use link, and activate the scout when the parent approves.
type Service struct {
	repo   *Repository
	scouts *scouts.Repository
	notify *notifications.Service
	cfg    config.ConsentConfig
	logger *zap.Logger
}

// NewService creates a consent service.
func NewService(repo *Repository, scoutRepo *scouts.Repository, notify *notifications.Service,
	cfg config.ConsentConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, scouts: scoutRepo, notify: notify, cfg: cfg, logger: logger}
}

// Start opens a consent request for a scout and emails the parent.
func (s *Service) Start(ctx context.Context, scoutID uuid.UUID, parentEmail, parentName string) (*models.ConsentRequest, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	req := &models.ConsentRequest{
		ScoutID:     scoutID,
		ParentEmail: parentEmail,
		ParentName:  parentName,
		Token:       token,
		ExpiresAt:   time.Now().Add(time.Duration(s.cfg.TokenExpiryHours) * time.Hour),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s?token=%s", s.cfg.ApprovalBaseURL, token)
	s.notify.Notify(ctx, &models.Notification{
		Type:      models.NotificationTypeConsentRequest,
		Channel:   "email",
		Recipient: parentEmail,
		Subject:   "Parental consent needed for your scout's Camp Card account",
		Body: "Your scout has been enrolled in the Camp Card fundraising program. " +
			"Please review and respond here: " + link,
	})
	return req, nil
}

// Approve consumes the token and activates the scout.
func (s *Service) Approve(ctx context.Context, token string) (*models.ConsentRequest, error) {
	req, err := s.repo.Resolve(ctx, token, models.ConsentStatusApproved)
	if err != nil {
		return nil, err
	}
	if err := s.scouts.SetStatus(ctx, req.ScoutID, models.ScoutStatusActive); err != nil {
		s.logger.Error("activate scout after consent failed",
			zap.Error(err), zap.String("scout_id", req.ScoutID.String()))
		return nil, err
	}
	return req, nil
}

// Decline consumes the token; the scout stays unable to sell.
func (s *Service) Decline(ctx context.Context, token string) (*models.ConsentRequest, error) {
	req, err := s.repo.Resolve(ctx, token, models.ConsentStatusDeclined)
	if err != nil {
		return nil, err
	}
	if err := s.scouts.SetStatus(ctx, req.ScoutID, models.ScoutStatusInactive); err != nil {
		s.logger.Error("deactivate scout after declined consent failed",
			zap.Error(err), zap.String("scout_id", req.ScoutID.String()))
	}
	return req, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
