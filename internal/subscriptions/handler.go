package subscriptions

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/internal/middleware"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/internal/scouts"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
)

// PaymentIntents opens a payment with the payment provider. Implemented by
// the payments client.
type PaymentIntents interface {
	CreateIntent(ctx context.Context, amountCents int, currency string, metadata map[string]string) (id, clientSecret string, err error)
}

// PaymentStore records payment rows. Implemented by the payments repository.
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
}

// Handler handles subscription HTTP endpoints.
type Handler struct {
	repo     *Repository
	scouts   *scouts.Repository
	intents  PaymentIntents
	payments PaymentStore
	logger   *zap.Logger
}

// NewHandler creates a subscriptions handler.
func NewHandler(repo *Repository, scoutRepo *scouts.Repository, intents PaymentIntents,
	payments PaymentStore, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, scouts: scoutRepo, intents: intents, payments: payments, logger: logger}
}

// ListPlans handles GET /plans.
func (h *Handler) ListPlans(c *gin.Context) {
	response.OK(c, Plans())
}

type purchaseRequest struct {
	Plan         string `json:"plan" binding:"required"`
	ReferralCode string `json:"referral_code"`
}

type purchaseResponse struct {
	Subscription *models.Subscription `json:"subscription"`
	Payment      *models.Payment      `json:"payment"`
	ClientSecret string               `json:"client_secret"`
}

// Purchase handles POST /subscriptions. Creates a pending card, attributes
// the sale to a scout when a referral code is supplied, and opens the payment.
// The card activates when the payment webhook confirms.
func (h *Handler) Purchase(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "plan is required")
		return
	}
	plan, ok := LookupPlan(req.Plan)
	if !ok {
		response.BadRequest(c, "unknown plan")
		return
	}

	var scoutID *uuid.UUID
	if req.ReferralCode != "" {
		scout, err := h.scouts.GetByReferralCode(c.Request.Context(), req.ReferralCode)
		if err != nil {
			if errors.Is(err, scouts.ErrNotFound) {
				response.BadRequest(c, "unknown referral code")
				return
			}
			response.Internal(c, "failed to look up referral code")
			return
		}
		if scout.Status != models.ScoutStatusActive {
			response.BadRequest(c, "referral code is not active")
			return
		}
		scoutID = &scout.ID
	}

	cardNumber, err := generateCardNumber()
	if err != nil {
		response.Internal(c, "failed to generate card number")
		return
	}
	sub := &models.Subscription{
		UserID:     userID,
		ScoutID:    scoutID,
		CardNumber: cardNumber,
		Plan:       plan.Name,
		PriceCents: plan.PriceCents,
	}
	if err := h.repo.Create(c.Request.Context(), sub); err != nil {
		response.Internal(c, "failed to create subscription")
		return
	}

	intentID, clientSecret, err := h.intents.CreateIntent(c.Request.Context(), plan.PriceCents, "usd", map[string]string{
		"subscription_id": sub.ID.String(),
	})
	if err != nil {
		h.logger.Error("create payment intent failed", zap.Error(err), zap.String("subscription_id", sub.ID.String()))
		response.Internal(c, "failed to start payment")
		return
	}

	payment := &models.Payment{
		SubscriptionID:    sub.ID,
		Provider:          "stripe",
		ProviderPaymentID: intentID,
		AmountCents:       plan.PriceCents,
		Currency:          "usd",
	}
	if err := h.payments.Create(c.Request.Context(), payment); err != nil {
		response.Internal(c, "failed to record payment")
		return
	}

	response.Created(c, purchaseResponse{Subscription: sub, Payment: payment, ClientSecret: clientSecret})
}

// ListMine handles GET /subscriptions.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list subscriptions")
		return
	}
	response.OK(c, list)
}

// Cancel handles POST /subscriptions/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid subscription id")
		return
	}
	sub, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "subscription not found")
			return
		}
		response.Internal(c, "failed to load subscription")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role := c.GetString(middleware.ContextUserRole)
	if sub.UserID != userID && role != string(models.RoleAdmin) {
		response.Forbidden(c, "not your subscription")
		return
	}
	if err := h.repo.Cancel(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Conflict(c, "subscription cannot be cancelled")
			return
		}
		response.Internal(c, "failed to cancel subscription")
		return
	}
	response.NoContent(c)
}

// generateCardNumber returns a display card number like "CC-493827164058".
func generateCardNumber() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	out := "CC-"
	for _, b := range buf {
		out += fmt.Sprintf("%02d", int(b)%100)
	}
	return out, nil
}
