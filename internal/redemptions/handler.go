package redemptions

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/internal/merchants"
	"github.com/SwipeSavdev/camp-card-sub005/internal/middleware"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/internal/notifications"
	"github.com/SwipeSavdev/camp-card-sub005/internal/offers"
	"github.com/SwipeSavdev/camp-card-sub005/internal/subscriptions"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
)

// Handler handles redemption HTTP endpoints.
type Handler struct {
	repo      *Repository
	offers    *offers.Repository
	checker   *offers.Checker
	merchants *merchants.Repository
	subs      *subscriptions.Repository
	notify    *notifications.Service
	logger    *zap.Logger
}

// NewHandler creates a redemptions handler.
func NewHandler(repo *Repository, offerRepo *offers.Repository, checker *offers.Checker,
	merchantRepo *merchants.Repository, subs *subscriptions.Repository,
	notify *notifications.Service, logger *zap.Logger) *Handler {
	return &Handler{
		repo:      repo,
		offers:    offerRepo,
		checker:   checker,
		merchants: merchantRepo,
		subs:      subs,
		notify:    notify,
		logger:    logger,
	}
}

type initiateRequest struct {
	OfferID            uuid.UUID  `json:"offer_id" binding:"required"`
	MerchantLocationID *uuid.UUID `json:"merchant_location_id"`
}

// Initiate handles POST /redemptions. A card holder starts a redemption: the
// offer must be redeemable and the caller must hold an active card. Returns a
// pending redemption with its QR token and verification code.
func (h *Handler) Initiate(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "offer_id is required")
		return
	}

	active, err := h.subs.HasActive(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to check subscription")
		return
	}
	if !active {
		response.Forbidden(c, "an active camp card is required to redeem offers")
		return
	}

	v, err := h.checker.CheckValidity(c.Request.Context(), req.OfferID, userID)
	if err != nil {
		if errors.Is(err, offers.ErrNotFound) {
			response.NotFound(c, "offer not found")
			return
		}
		response.Internal(c, "failed to check offer")
		return
	}
	if !v.CanRedeem {
		response.OK(c, v)
		return
	}

	code, err := GenerateVerificationCode()
	if err != nil {
		response.Internal(c, "failed to generate verification code")
		return
	}
	token, err := GenerateToken()
	if err != nil {
		response.Internal(c, "failed to generate redemption token")
		return
	}

	red := &models.OfferRedemption{
		OfferID:            req.OfferID,
		UserID:             userID,
		MerchantID:         v.Offer.MerchantID,
		MerchantLocationID: req.MerchantLocationID,
		VerificationCode:   code,
		RedemptionToken:    token,
	}
	if err := h.repo.Create(c.Request.Context(), red); err != nil {
		response.Internal(c, "failed to create redemption")
		return
	}
	response.Created(c, red)
}

// QRCode handles GET /redemptions/:id/qr. Renders the redemption token as a
// PNG for the merchant to scan.
func (h *Handler) QRCode(c *gin.Context) {
	red, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if red.Status != models.RedemptionPending {
		response.Conflict(c, "redemption is no longer pending")
		return
	}
	png, err := qrcode.Encode(red.RedemptionToken, qrcode.Medium, 256)
	if err != nil {
		response.Internal(c, "failed to render QR code")
		return
	}
	c.Data(200, "image/png", png)
}

// GetByID handles GET /redemptions/:id.
func (h *Handler) GetByID(c *gin.Context) {
	red, ok := h.loadOwned(c)
	if !ok {
		return
	}
	response.OK(c, red)
}

// ListMine handles GET /redemptions. Returns the caller's redemptions.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list redemptions")
		return
	}
	response.OK(c, list)
}

// ListForMerchant handles GET /merchant/redemptions. Returns redemptions at
// the caller's merchant.
func (h *Handler) ListForMerchant(c *gin.Context) {
	m, ok := h.callerMerchant(c)
	if !ok {
		return
	}
	list, err := h.repo.ListByMerchant(c.Request.Context(), m.ID)
	if err != nil {
		response.Internal(c, "failed to list redemptions")
		return
	}
	response.OK(c, list)
}

type verifyRequest struct {
	VerificationCode string `json:"verification_code" binding:"required"`
}

// VerifyByCode handles POST /merchant/redemptions/verify. Manual fallback for
// when a QR scan is not possible: the merchant types the customer's code. The
// claim goes through the same transaction as a QR scan, so the offer's usage
// limits hold on this path too.
func (h *Handler) VerifyByCode(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "verification_code is required")
		return
	}

	red, err := h.repo.GetByCode(c.Request.Context(), req.VerificationCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "redemption not found")
			return
		}
		response.Internal(c, "failed to load redemption")
		return
	}
	m, ok := h.callerMerchant(c)
	if !ok {
		return
	}
	if red.MerchantID != m.ID {
		response.Forbidden(c, "redemption belongs to another merchant")
		return
	}

	claimed, err := h.repo.ClaimByCode(c.Request.Context(), req.VerificationCode, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyRedeemed):
			response.Conflict(c, "code has already been redeemed")
		case errors.Is(err, ErrUsageLimitReached):
			response.Conflict(c, "offer usage limit reached")
		case errors.Is(err, ErrPerUserLimitReached):
			response.Conflict(c, "per-user redemption limit reached")
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "redemption not found")
		default:
			response.Internal(c, "failed to verify redemption")
		}
		return
	}
	response.OK(c, claimed)
}

type completeRequest struct {
	PurchaseCents *int `json:"purchase_cents"`
	DiscountCents *int `json:"discount_cents"`
}

// purchase treats an absent purchase amount as zero.
func (r completeRequest) purchase() int {
	if r.PurchaseCents == nil {
		return 0
	}
	return *r.PurchaseCents
}

// Complete handles POST /merchant/redemptions/:id/complete. The merchant
// records the purchase; the discount is derived from the offer, or supplied by
// the merchant for bogo/free-item/special-price offers.
func (h *Handler) Complete(c *gin.Context) {
	red, _, ok := h.loadForMerchant(c)
	if !ok {
		return
	}

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.purchase() < 0 {
		response.BadRequest(c, "invalid purchase_cents")
		return
	}
	purchase := req.purchase()

	offer, err := h.offers.GetByID(c.Request.Context(), red.OfferID)
	if err != nil {
		response.Internal(c, "failed to load offer")
		return
	}

	var discount int
	if offer.DiscountType.RequiresManualAmount() {
		if req.DiscountCents == nil {
			response.BadRequest(c, "discount_cents is required for this offer type")
			return
		}
		discount = offers.CapManualDiscount(offer, *req.DiscountCents, purchase)
	} else {
		discount, err = offers.CalculateDiscount(offer, purchase)
		if err != nil {
			response.Internal(c, "failed to calculate discount")
			return
		}
	}
	final := purchase - discount

	if err := h.repo.Complete(c.Request.Context(), red.ID, purchase, discount, final); err != nil {
		h.writeTransitionError(c, err)
		return
	}
	red, err = h.repo.GetByID(c.Request.Context(), red.ID)
	if err != nil {
		response.Internal(c, "failed to load redemption")
		return
	}

	h.notify.Notify(c.Request.Context(), &models.Notification{
		Type:        models.NotificationTypeRedemptionCompleted,
		Channel:     "push",
		RecipientID: &red.UserID,
		Subject:     "Offer redeemed: " + offer.Title,
		Body:        "Your redemption was completed. Enjoy your savings!",
	})

	response.OK(c, red)
}

// Cancel handles POST /redemptions/:id/cancel. The card holder abandons a
// redemption they no longer intend to use.
func (h *Handler) Cancel(c *gin.Context) {
	red, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if err := h.repo.Cancel(c.Request.Context(), red.ID); err != nil {
		h.writeTransitionError(c, err)
		return
	}
	red, err := h.repo.GetByID(c.Request.Context(), red.ID)
	if err != nil {
		response.Internal(c, "failed to load redemption")
		return
	}
	response.OK(c, red)
}

// loadOwned fetches the :id redemption and ensures the caller owns it (or is
// an admin). Writes the response on failure.
func (h *Handler) loadOwned(c *gin.Context) (*models.OfferRedemption, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid redemption id")
		return nil, false
	}
	red, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "redemption not found")
			return nil, false
		}
		response.Internal(c, "failed to load redemption")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role := c.GetString(middleware.ContextUserRole)
	if red.UserID != userID && role != string(models.RoleAdmin) {
		response.Forbidden(c, "not your redemption")
		return nil, false
	}
	return red, true
}

// loadForMerchant fetches the :id redemption and ensures it belongs to the
// caller's merchant. Writes the response on failure.
func (h *Handler) loadForMerchant(c *gin.Context) (*models.OfferRedemption, *models.Merchant, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid redemption id")
		return nil, nil, false
	}
	red, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "redemption not found")
			return nil, nil, false
		}
		response.Internal(c, "failed to load redemption")
		return nil, nil, false
	}
	m, ok := h.callerMerchant(c)
	if !ok {
		return nil, nil, false
	}
	if red.MerchantID != m.ID {
		response.Forbidden(c, "redemption belongs to another merchant")
		return nil, nil, false
	}
	return red, m, true
}

// callerMerchant resolves the merchant owned by the authenticated user.
func (h *Handler) callerMerchant(c *gin.Context) (*models.Merchant, bool) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	m, err := h.merchants.GetByOwner(c.Request.Context(), userID)
	if err != nil {
		response.Forbidden(c, "no merchant account for this user")
		return nil, false
	}
	return m, true
}

func (h *Handler) writeTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "redemption not found")
	case errors.Is(err, ErrInvalidState):
		response.Conflict(c, "redemption is not in a state that allows this action")
	default:
		response.Internal(c, "failed to update redemption")
	}
}
