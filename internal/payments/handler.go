package payments

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/internal/notifications"
	"github.com/SwipeSavdev/camp-card-sub005/internal/scouts"
	"github.com/SwipeSavdev/camp-card-sub005/internal/subscriptions"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
)

const maxWebhookBody = 65536

// WebhookHandler processes Stripe webhook events. Activation and sale
// attribution run here, after the money actually moved; every step is
// idempotent because Stripe retries deliveries.
type WebhookHandler struct {
	client *Client
	repo   *Repository
	subs   *subscriptions.Repository
	scouts *scouts.Repository
	notify *notifications.Service
	logger *zap.Logger
}

// NewWebhookHandler creates a Stripe webhook handler.
func NewWebhookHandler(client *Client, repo *Repository, subs *subscriptions.Repository,
	scoutRepo *scouts.Repository, notify *notifications.Service, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{client: client, repo: repo, subs: subs, scouts: scoutRepo, notify: notify, logger: logger}
}

// HandleStripeWebhook handles POST /webhooks/stripe.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "failed to read body")
		return
	}
	event, err := h.client.ConstructWebhookEvent(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		response.BadRequest(c, "invalid signature")
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		h.handlePaymentSucceeded(c, event)
	case "payment_intent.payment_failed":
		h.handlePaymentFailed(c, event)
	case "charge.refunded":
		h.handleChargeRefunded(c, event)
	}
	c.Status(200)
}

func (h *WebhookHandler) handlePaymentSucceeded(c *gin.Context, event stripe.Event) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		h.logger.Error("unmarshal payment intent failed", zap.Error(err))
		return
	}
	ctx := c.Request.Context()

	payment, err := h.repo.GetByProviderID(ctx, pi.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.logger.Warn("webhook for unknown payment", zap.String("payment_intent", pi.ID))
			return
		}
		h.logger.Error("load payment failed", zap.Error(err))
		return
	}
	moved, err := h.repo.MarkCompleted(ctx, payment.ID)
	if err != nil {
		h.logger.Error("mark payment completed failed", zap.Error(err), zap.String("payment_id", payment.ID.String()))
		return
	}
	if !moved {
		// retry delivery, already processed
		return
	}

	sub, err := h.subs.GetByID(ctx, payment.SubscriptionID)
	if err != nil {
		h.logger.Error("load subscription failed", zap.Error(err))
		return
	}
	plan, ok := subscriptions.LookupPlan(sub.Plan)
	if !ok {
		h.logger.Error("subscription has unknown plan", zap.String("plan", sub.Plan))
		return
	}
	activated, err := h.subs.Activate(ctx, sub.ID, plan.Months)
	if err != nil {
		h.logger.Error("activate subscription failed", zap.Error(err), zap.String("subscription_id", sub.ID.String()))
		return
	}
	if activated && sub.ScoutID != nil {
		if err := h.scouts.IncrementCardsSold(ctx, *sub.ScoutID); err != nil {
			h.logger.Error("credit scout sale failed", zap.Error(err), zap.String("scout_id", sub.ScoutID.String()))
		}
	}

	h.notify.Notify(ctx, &models.Notification{
		Type:        models.NotificationTypeReceipt,
		Channel:     "email",
		RecipientID: &sub.UserID,
		Subject:     "Your Camp Card is active",
		Body:        "Thanks for supporting Scouting! Card " + sub.CardNumber + " is now active.",
	})
	h.logger.Info("subscription activated",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("payment_intent", pi.ID),
	)
}

func (h *WebhookHandler) handlePaymentFailed(c *gin.Context, event stripe.Event) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		h.logger.Error("unmarshal payment intent failed", zap.Error(err))
		return
	}
	ctx := c.Request.Context()
	payment, err := h.repo.GetByProviderID(ctx, pi.ID)
	if err != nil {
		return
	}
	if err := h.repo.MarkFailed(ctx, payment.ID); err != nil {
		h.logger.Error("mark payment failed failed", zap.Error(err), zap.String("payment_id", payment.ID.String()))
	}
}

func (h *WebhookHandler) handleChargeRefunded(c *gin.Context, event stripe.Event) {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		h.logger.Error("unmarshal charge failed", zap.Error(err))
		return
	}
	if charge.PaymentIntent == nil {
		return
	}
	ctx := c.Request.Context()
	payment, err := h.repo.GetByProviderID(ctx, charge.PaymentIntent.ID)
	if err != nil {
		return
	}
	if err := h.repo.MarkRefunded(ctx, payment.ID); err != nil {
		h.logger.Error("mark payment refunded failed", zap.Error(err), zap.String("payment_id", payment.ID.String()))
		return
	}
	if err := h.subs.Cancel(ctx, payment.SubscriptionID); err != nil && !errors.Is(err, subscriptions.ErrNotFound) {
		h.logger.Error("cancel refunded subscription failed", zap.Error(err))
	}
}

// ListBySubscription handles GET /subscriptions/:id/payments.
func (h *WebhookHandler) ListBySubscription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid subscription id")
		return
	}
	list, err := h.repo.ListBySubscription(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list payments")
		return
	}
	response.OK(c, list)
}
