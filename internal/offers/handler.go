package offers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/internal/merchants"
	"github.com/SwipeSavdev/camp-card-sub005/internal/middleware"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/storage"
)

// CreateRequest is the body for POST /merchants/:id/offers.
type CreateRequest struct {
	Title             string `json:"title" binding:"required"`
	Description       string `json:"description"`
	DiscountType      string `json:"discount_type" binding:"required"`
	DiscountValue     int    `json:"discount_value"`
	MinPurchaseCents  int    `json:"min_purchase_cents"`
	MaxDiscountCents  *int   `json:"max_discount_cents"`
	ValidFrom         string `json:"valid_from" binding:"required"`
	ValidUntil        string `json:"valid_until" binding:"required"`
	UsageLimit        *int   `json:"usage_limit"`
	UsageLimitPerUser *int   `json:"usage_limit_per_user"`
}

// Handler handles offer HTTP endpoints.
type Handler struct {
	repo         *Repository
	merchantRepo *merchants.Repository
	checker      *Checker
	s3           *storage.S3
	logger       *zap.Logger
}

// NewHandler creates an offers handler.
func NewHandler(repo *Repository, merchantRepo *merchants.Repository, checker *Checker, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, merchantRepo: merchantRepo, checker: checker, s3: s3, logger: logger}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseDiscountType(s string) (models.DiscountType, bool) {
	switch t := models.DiscountType(s); t {
	case models.DiscountPercentage, models.DiscountFixedAmount, models.DiscountBogo, models.DiscountFreeItem, models.DiscountSpecialPrice:
		return t, true
	}
	return "", false
}

// requireOwnedMerchant loads the merchant and checks the caller owns it (admins bypass).
func (h *Handler) requireOwnedMerchant(c *gin.Context, merchantID uuid.UUID) *models.Merchant {
	m, err := h.merchantRepo.GetByID(c.Request.Context(), merchantID)
	if err != nil {
		response.NotFound(c, "merchant not found")
		return nil
	}
	role := c.MustGet(middleware.ContextUserRole).(string)
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if role != string(models.RoleAdmin) && m.OwnerID != userID {
		response.Forbidden(c, "not the merchant owner")
		return nil
	}
	return m
}

// Create handles POST /merchants/:id/offers (merchant owner or admin).
func (h *Handler) Create(c *gin.Context) {
	merchantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid merchant id")
		return
	}
	if h.requireOwnedMerchant(c, merchantID) == nil {
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	discountType, ok := parseDiscountType(req.DiscountType)
	if !ok {
		response.BadRequest(c, "invalid discount_type")
		return
	}
	validFrom, err := parseTime(req.ValidFrom)
	if err != nil {
		response.BadRequest(c, "invalid valid_from")
		return
	}
	validUntil, err := parseTime(req.ValidUntil)
	if err != nil {
		response.BadRequest(c, "invalid valid_until")
		return
	}
	if !validUntil.After(validFrom) {
		response.BadRequest(c, "valid_until must be after valid_from")
		return
	}

	o := &models.Offer{
		MerchantID:        merchantID,
		Title:             req.Title,
		Description:       req.Description,
		DiscountType:      discountType,
		DiscountValue:     req.DiscountValue,
		MinPurchaseCents:  req.MinPurchaseCents,
		MaxDiscountCents:  req.MaxDiscountCents,
		ValidFrom:         validFrom,
		ValidUntil:        validUntil,
		UsageLimit:        req.UsageLimit,
		UsageLimitPerUser: req.UsageLimitPerUser,
		Status:            models.OfferStatusDraft,
	}
	if err := h.repo.Create(c.Request.Context(), o); err != nil {
		h.logger.Error("create offer failed", zap.Error(err))
		response.Internal(c, "failed to create offer")
		return
	}
	response.Created(c, o)
}

// GetByID handles GET /offers/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offer id")
		return
	}
	o, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "offer not found")
		return
	}
	response.OK(c, o)
}

// ListActive handles GET /offers (card holders browse redeemable offers).
func (h *Handler) ListActive(c *gin.Context) {
	list, err := h.repo.ListActive(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list offers")
		return
	}
	response.OK(c, list)
}

// ListByMerchant handles GET /merchants/:id/offers.
func (h *Handler) ListByMerchant(c *gin.Context) {
	merchantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid merchant id")
		return
	}
	list, err := h.repo.ListByMerchant(c.Request.Context(), merchantID)
	if err != nil {
		response.Internal(c, "failed to list offers")
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /offers/:id (merchant owner or admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offer id")
		return
	}
	o, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "offer not found")
		return
	}
	if h.requireOwnedMerchant(c, o.MerchantID) == nil {
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	discountType, ok := parseDiscountType(req.DiscountType)
	if !ok {
		response.BadRequest(c, "invalid discount_type")
		return
	}
	validFrom, err := parseTime(req.ValidFrom)
	if err != nil {
		response.BadRequest(c, "invalid valid_from")
		return
	}
	validUntil, err := parseTime(req.ValidUntil)
	if err != nil {
		response.BadRequest(c, "invalid valid_until")
		return
	}

	o.Title = req.Title
	o.Description = req.Description
	o.DiscountType = discountType
	o.DiscountValue = req.DiscountValue
	o.MinPurchaseCents = req.MinPurchaseCents
	o.MaxDiscountCents = req.MaxDiscountCents
	o.ValidFrom = validFrom
	o.ValidUntil = validUntil
	o.UsageLimit = req.UsageLimit
	o.UsageLimitPerUser = req.UsageLimitPerUser
	if err := h.repo.Update(c.Request.Context(), o); err != nil {
		response.Internal(c, "failed to update offer")
		return
	}
	response.OK(c, o)
}

// UpdateStatus handles PATCH /offers/:id/status. Admins may suspend; owners
// may move between draft/active/paused.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offer id")
		return
	}
	o, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "offer not found")
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	status := models.OfferStatus(req.Status)
	role := c.MustGet(middleware.ContextUserRole).(string)
	switch status {
	case models.OfferStatusDraft, models.OfferStatusActive, models.OfferStatusPaused:
		if h.requireOwnedMerchant(c, o.MerchantID) == nil {
			return
		}
	case models.OfferStatusSuspended:
		if role != string(models.RoleAdmin) {
			response.Forbidden(c, "only admins can suspend offers")
			return
		}
	default:
		response.BadRequest(c, "invalid status")
		return
	}
	if err := h.repo.UpdateStatus(c.Request.Context(), id, status); err != nil {
		response.Internal(c, "failed to update status")
		return
	}
	response.OK(c, gin.H{"id": id, "status": status})
}

// CheckValidity handles GET /offers/:id/validity. Returns can_redeem for the
// current user; expired/exhausted offers are a normal false, not an error.
func (h *Handler) CheckValidity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offer id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	v, err := h.checker.CheckValidity(c.Request.Context(), id, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "offer not found")
			return
		}
		response.Internal(c, "failed to check validity")
		return
	}
	response.OK(c, v)
}

// UploadImage handles POST /offers/:id/image (multipart; merchant owner or admin).
func (h *Handler) UploadImage(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "media storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offer id")
		return
	}
	o, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "offer not found")
		return
	}
	if h.requireOwnedMerchant(c, o.MerchantID) == nil {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file required")
		return
	}
	if fileHeader.Size > storage.MaxMediaFileSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateMediaFileType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read file")
		return
	}
	defer f.Close()

	key := storage.OfferImageKey(id.String(), fileHeader.Filename)
	if _, err := h.s3.Upload(c.Request.Context(), key, storage.ContentTypeForFilename(fileHeader.Filename), f, fileHeader.Size); err != nil {
		h.logger.Error("offer image upload failed", zap.Error(err), zap.String("offer_id", id.String()))
		response.Internal(c, "failed to upload image")
		return
	}
	if err := h.repo.SetImageKey(c.Request.Context(), id, key); err != nil {
		response.Internal(c, "failed to save image key")
		return
	}
	response.OK(c, gin.H{"offer_id": id, "image_key": key})
}

// ImageURL handles GET /offers/:id/image-url. Returns a presigned download URL.
func (h *Handler) ImageURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "media storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offer id")
		return
	}
	o, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "offer not found")
		return
	}
	if o.ImageKey == "" {
		response.NotFound(c, "offer has no image")
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), o.ImageKey, h.s3.PresignExpire())
	if err != nil {
		response.Internal(c, "failed to generate url")
		return
	}
	response.OK(c, gin.H{"url": url})
}
