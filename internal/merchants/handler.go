package merchants

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/internal/middleware"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
)

// CreateRequest is the body for POST /merchants.
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// LocationRequest is the body for POST /merchants/:id/locations.
type LocationRequest struct {
	Address   string   `json:"address" binding:"required"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Handler handles merchant HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a merchants handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /merchants (merchant role; one business per owner).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if existing, err := h.repo.GetByOwner(c.Request.Context(), userID); err == nil && existing != nil {
		response.Conflict(c, "merchant profile already exists")
		return
	}
	m := &models.Merchant{
		OwnerID:     userID,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
	}
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		h.logger.Error("create merchant failed", zap.Error(err))
		response.Internal(c, "failed to create merchant")
		return
	}
	response.Created(c, m)
}

// GetByID handles GET /merchants/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid merchant id")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "merchant not found")
		return
	}
	response.OK(c, m)
}

// List handles GET /merchants.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list merchants")
		return
	}
	response.OK(c, list)
}

// Update handles PATCH /merchants/:id (owner or admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid merchant id")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "merchant not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role := c.MustGet(middleware.ContextUserRole).(string)
	if role != string(models.RoleAdmin) && m.OwnerID != userID {
		response.Forbidden(c, "not the merchant owner")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m.Name = req.Name
	m.Category = req.Category
	m.Description = req.Description
	if err := h.repo.Update(c.Request.Context(), m); err != nil {
		response.Internal(c, "failed to update merchant")
		return
	}
	response.OK(c, m)
}

// AddLocation handles POST /merchants/:id/locations (owner or admin).
func (h *Handler) AddLocation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid merchant id")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "merchant not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role := c.MustGet(middleware.ContextUserRole).(string)
	if role != string(models.RoleAdmin) && m.OwnerID != userID {
		response.Forbidden(c, "not the merchant owner")
		return
	}
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	l := &models.MerchantLocation{
		MerchantID: id,
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	}
	if err := h.repo.AddLocation(c.Request.Context(), l); err != nil {
		response.Internal(c, "failed to add location")
		return
	}
	response.Created(c, l)
}

// ListLocations handles GET /merchants/:id/locations.
func (h *Handler) ListLocations(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid merchant id")
		return
	}
	list, err := h.repo.ListLocations(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list locations")
		return
	}
	response.OK(c, list)
}
