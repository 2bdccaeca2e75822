package scans

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SwipeSavdev/camp-card-sub005/internal/merchants"
	"github.com/SwipeSavdev/camp-card-sub005/internal/middleware"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
)

// Handler handles scan HTTP endpoints.
type Handler struct {
	service   *Service
	repo      *Repository
	merchants *merchants.Repository
}

// NewHandler creates a scans handler.
func NewHandler(service *Service, repo *Repository, merchantRepo *merchants.Repository) *Handler {
	return &Handler{service: service, repo: repo, merchants: merchantRepo}
}

type scanRequest struct {
	Token              string     `json:"token" binding:"required"`
	MerchantLocationID *uuid.UUID `json:"merchant_location_id"`
	DeviceFingerprint  *string    `json:"device_fingerprint"`
	Latitude           *float64   `json:"latitude"`
	Longitude          *float64   `json:"longitude"`
}

// Scan handles POST /merchant/scans. The merchant's device submits a scanned
// QR token; the response carries the resolved outcome either way.
func (h *Handler) Scan(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "token is required")
		return
	}

	m, err := h.merchants.GetByOwner(c.Request.Context(), userID)
	if err != nil {
		response.Forbidden(c, "no merchant account for this user")
		return
	}

	in := Input{
		Token:              req.Token,
		MerchantID:         m.ID,
		MerchantLocationID: req.MerchantLocationID,
		VerifierID:         userID,
		DeviceFingerprint:  req.DeviceFingerprint,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
	}
	if ip := c.ClientIP(); ip != "" {
		in.IPAddress = &ip
	}
	if ua := c.Request.UserAgent(); ua != "" {
		in.UserAgent = &ua
	}

	outcome, err := h.service.Scan(c.Request.Context(), in)
	if err != nil {
		response.Internal(c, "failed to process scan")
		return
	}
	response.OK(c, outcome)
}

// History handles GET /admin/scans/token/:token. Returns the full attempt
// trail for a token, for abuse review.
func (h *Handler) History(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.BadRequest(c, "token is required")
		return
	}
	list, err := h.repo.ListByToken(c.Request.Context(), token)
	if err != nil {
		response.Internal(c, "failed to list scan attempts")
		return
	}
	response.OK(c, list)
}
