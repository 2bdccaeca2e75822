package consents

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
)

// Handler handles consent HTTP endpoints. The approve/decline endpoints are
// public: the parent authenticates by possessing the emailed token.
type Handler struct {
	repo    *Repository
	service *Service
}

// NewHandler creates a consents handler.
func NewHandler(repo *Repository, service *Service) *Handler {
	return &Handler{repo: repo, service: service}
}

// Status handles GET /public/consents/:token. Lets the consent page show the
// request before the parent decides.
func (h *Handler) Status(c *gin.Context) {
	cr, err := h.repo.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "consent request not found")
			return
		}
		response.Internal(c, "failed to load consent request")
		return
	}
	response.OK(c, cr)
}

// Approve handles POST /public/consents/:token/approve.
func (h *Handler) Approve(c *gin.Context) {
	cr, err := h.service.Approve(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.writeResolveError(c, err)
		return
	}
	response.OK(c, cr)
}

// Decline handles POST /public/consents/:token/decline.
func (h *Handler) Decline(c *gin.Context) {
	cr, err := h.service.Decline(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.writeResolveError(c, err)
		return
	}
	response.OK(c, cr)
}

// ListByScout handles GET /scouts/:id/consents.
func (h *Handler) ListByScout(c *gin.Context) {
	scoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid scout id")
		return
	}
	list, err := h.repo.ListByScout(c.Request.Context(), scoutID)
	if err != nil {
		response.Internal(c, "failed to list consent requests")
		return
	}
	// tokens never leave the email channel
	for i := range list {
		list[i].Token = ""
	}
	response.OK(c, list)
}

func (h *Handler) writeResolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "consent request not found")
	case errors.Is(err, ErrAlreadyResolved):
		response.Conflict(c, "consent request already resolved")
	case errors.Is(err, ErrExpired):
		response.Conflict(c, "consent request has expired")
	default:
		response.Internal(c, "failed to resolve consent request")
	}
}
