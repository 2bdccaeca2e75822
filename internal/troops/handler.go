package troops

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SwipeSavdev/camp-card-sub005/internal/councils"
	"github.com/SwipeSavdev/camp-card-sub005/internal/middleware"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
)

// Handler handles troop HTTP endpoints.
type Handler struct {
	repo     *Repository
	councils *councils.Repository
}

// NewHandler creates a troops handler.
func NewHandler(repo *Repository, councilRepo *councils.Repository) *Handler {
	return &Handler{repo: repo, councils: councilRepo}
}

type createTroopRequest struct {
	CouncilID uuid.UUID  `json:"council_id" binding:"required"`
	Number    string     `json:"number" binding:"required"`
	Name      string     `json:"name"`
	LeaderID  *uuid.UUID `json:"leader_id"`
}

// Create handles POST /troops. Council staff create troops in their council.
func (h *Handler) Create(c *gin.Context) {
	var req createTroopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "council_id and number are required")
		return
	}
	if !h.canManageCouncil(c, req.CouncilID) {
		return
	}
	t := &models.Troop{CouncilID: req.CouncilID, Number: req.Number, Name: req.Name, LeaderID: req.LeaderID}
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		response.Internal(c, "failed to create troop")
		return
	}
	response.Created(c, t)
}

// ListByCouncil handles GET /councils/:id/troops.
func (h *Handler) ListByCouncil(c *gin.Context) {
	councilID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid council id")
		return
	}
	list, err := h.repo.ListByCouncil(c.Request.Context(), councilID)
	if err != nil {
		response.Internal(c, "failed to list troops")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /troops/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid troop id")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "troop not found")
			return
		}
		response.Internal(c, "failed to load troop")
		return
	}
	response.OK(c, t)
}

type updateTroopRequest struct {
	Number   string     `json:"number" binding:"required"`
	Name     string     `json:"name"`
	LeaderID *uuid.UUID `json:"leader_id"`
}

// Update handles PUT /troops/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid troop id")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "troop not found")
			return
		}
		response.Internal(c, "failed to load troop")
		return
	}
	if !h.canManageCouncil(c, t.CouncilID) {
		return
	}

	var req updateTroopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "number is required")
		return
	}
	t.Number = req.Number
	t.Name = req.Name
	t.LeaderID = req.LeaderID
	if err := h.repo.Update(c.Request.Context(), t); err != nil {
		response.Internal(c, "failed to update troop")
		return
	}
	response.OK(c, t)
}

func (h *Handler) canManageCouncil(c *gin.Context, councilID uuid.UUID) bool {
	role := c.GetString(middleware.ContextUserRole)
	if role == string(models.RoleAdmin) {
		return true
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	member, err := h.councils.IsMember(c.Request.Context(), councilID, userID)
	if err != nil {
		response.Internal(c, "failed to check council membership")
		return false
	}
	if !member {
		response.Forbidden(c, "not a member of this council")
		return false
	}
	return true
}
