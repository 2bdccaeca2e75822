package notifications

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SwipeSavdev/camp-card-sub005/internal/middleware"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
)

// Handler handles notification HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a notifications handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ListMine handles GET /notifications. Returns the caller's notifications.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByRecipient(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list notifications")
		return
	}
	response.OK(c, list)
}
