package councils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SwipeSavdev/camp-card-sub005/internal/middleware"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
)

// Handler handles council HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a councils handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type createCouncilRequest struct {
	Name  string `json:"name" binding:"required"`
	Slug  string `json:"slug" binding:"required"`
	City  string `json:"city"`
	State string `json:"state"`
}

// Create handles POST /admin/councils.
func (h *Handler) Create(c *gin.Context) {
	var req createCouncilRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name and slug are required")
		return
	}
	col := &models.Council{Name: req.Name, Slug: req.Slug, City: req.City, State: req.State}
	if err := h.repo.Create(c.Request.Context(), col); err != nil {
		response.Internal(c, "failed to create council")
		return
	}
	response.Created(c, col)
}

// List handles GET /councils.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list councils")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /councils/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid council id")
		return
	}
	col, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "council not found")
			return
		}
		response.Internal(c, "failed to load council")
		return
	}
	response.OK(c, col)
}

type updateCouncilRequest struct {
	Name  string `json:"name" binding:"required"`
	City  string `json:"city"`
	State string `json:"state"`
}

// Update handles PUT /councils/:id. Council staff may edit their own council;
// admins may edit any.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid council id")
		return
	}
	col, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "council not found")
			return
		}
		response.Internal(c, "failed to load council")
		return
	}
	if !h.canManage(c, id) {
		return
	}

	var req updateCouncilRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name is required")
		return
	}
	col.Name = req.Name
	col.City = req.City
	col.State = req.State
	if err := h.repo.Update(c.Request.Context(), col); err != nil {
		response.Internal(c, "failed to update council")
		return
	}
	response.OK(c, col)
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Role   string    `json:"role"`
}

// AddMember handles POST /councils/:id/members.
func (h *Handler) AddMember(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid council id")
		return
	}
	if !h.canManage(c, id) {
		return
	}
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_id is required")
		return
	}
	if req.Role == "" {
		req.Role = "member"
	}
	if err := h.repo.AddMember(c.Request.Context(), id, req.UserID, req.Role); err != nil {
		response.Internal(c, "failed to add member")
		return
	}
	response.NoContent(c)
}

// canManage checks the caller may administer the council: admins always,
// council staff only for councils they belong to. Writes the response on
// failure.
func (h *Handler) canManage(c *gin.Context, councilID uuid.UUID) bool {
	role := c.GetString(middleware.ContextUserRole)
	if role == string(models.RoleAdmin) {
		return true
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	member, err := h.repo.IsMember(c.Request.Context(), councilID, userID)
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
