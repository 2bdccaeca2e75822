package leaderboard

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
)

// Handler handles leaderboard HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a leaderboard handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Council handles GET /councils/:id/leaderboard.
func (h *Handler) Council(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid council id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	list, err := h.repo.CouncilStandings(c.Request.Context(), id, limit)
	if err != nil {
		response.Internal(c, "failed to load leaderboard")
		return
	}
	response.OK(c, list)
}

// Troop handles GET /troops/:id/leaderboard.
func (h *Handler) Troop(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid troop id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	list, err := h.repo.TroopStandings(c.Request.Context(), id, limit)
	if err != nil {
		response.Internal(c, "failed to load leaderboard")
		return
	}
	response.OK(c, list)
}
