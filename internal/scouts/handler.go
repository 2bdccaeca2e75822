package scouts

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SwipeSavdev/camp-card-sub005/internal/middleware"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/internal/troops"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
)

// ConsentStarter opens a parental consent request for a newly enrolled scout.
// Implemented by the consents service.
type ConsentStarter interface {
	Start(ctx context.Context, scoutID uuid.UUID, parentEmail, parentName string) (*models.ConsentRequest, error)
}

// Handler handles scout HTTP endpoints.
type Handler struct {
	repo     *Repository
	troops   *troops.Repository
	consents ConsentStarter
}

// NewHandler creates a scouts handler.
func NewHandler(repo *Repository, troopRepo *troops.Repository, consents ConsentStarter) *Handler {
	return &Handler{repo: repo, troops: troopRepo, consents: consents}
}

type enrollRequest struct {
	UserID      uuid.UUID `json:"user_id" binding:"required"`
	ParentEmail string    `json:"parent_email" binding:"required,email"`
	ParentName  string    `json:"parent_name"`
}

// Enroll handles POST /troops/:id/scouts. A leader enrolls a scout account in
// their troop; the scout stays pending_consent until a parent approves.
func (h *Handler) Enroll(c *gin.Context) {
	troopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid troop id")
		return
	}
	troop, err := h.troops.GetByID(c.Request.Context(), troopID)
	if err != nil {
		if errors.Is(err, troops.ErrNotFound) {
			response.NotFound(c, "troop not found")
			return
		}
		response.Internal(c, "failed to load troop")
		return
	}
	if !h.canManageTroop(c, troop) {
		return
	}

	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_id and parent_email are required")
		return
	}

	code, err := GenerateReferralCode()
	if err != nil {
		response.Internal(c, "failed to generate referral code")
		return
	}
	scout := &models.Scout{TroopID: troopID, UserID: req.UserID, ReferralCode: code}
	if err := h.repo.Create(c.Request.Context(), scout); err != nil {
		response.Internal(c, "failed to enroll scout")
		return
	}

	if _, err := h.consents.Start(c.Request.Context(), scout.ID, req.ParentEmail, req.ParentName); err != nil {
		response.Internal(c, "failed to start consent request")
		return
	}
	response.Created(c, scout)
}

// ListByTroop handles GET /troops/:id/scouts.
func (h *Handler) ListByTroop(c *gin.Context) {
	troopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid troop id")
		return
	}
	list, err := h.repo.ListByTroop(c.Request.Context(), troopID)
	if err != nil {
		response.Internal(c, "failed to list scouts")
		return
	}
	response.OK(c, list)
}

// GetMine handles GET /scouts/me. Returns the caller's scout record.
func (h *Handler) GetMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	scout, err := h.repo.GetByUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "no scout record for this user")
			return
		}
		response.Internal(c, "failed to load scout")
		return
	}
	response.OK(c, scout)
}

type setStatusRequest struct {
	Status models.ScoutStatus `json:"status" binding:"required"`
}

// SetStatus handles PUT /scouts/:id/status. Leaders deactivate or reactivate
// scouts in their troop; consent approval is the only path out of
// pending_consent.
func (h *Handler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid scout id")
		return
	}
	scout, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "scout not found")
			return
		}
		response.Internal(c, "failed to load scout")
		return
	}
	troop, err := h.troops.GetByID(c.Request.Context(), scout.TroopID)
	if err != nil {
		response.Internal(c, "failed to load troop")
		return
	}
	if !h.canManageTroop(c, troop) {
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		(req.Status != models.ScoutStatusActive && req.Status != models.ScoutStatusInactive) {
		response.BadRequest(c, "status must be active or inactive")
		return
	}
	if scout.Status == models.ScoutStatusPendingConsent && req.Status == models.ScoutStatusActive {
		response.Conflict(c, "scout is awaiting parental consent")
		return
	}
	if err := h.repo.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		response.Internal(c, "failed to update scout")
		return
	}
	scout.Status = req.Status
	response.OK(c, scout)
}

func (h *Handler) canManageTroop(c *gin.Context, troop *models.Troop) bool {
	role := c.GetString(middleware.ContextUserRole)
	if role == string(models.RoleAdmin) || role == string(models.RoleCouncil) {
		return true
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if troop.LeaderID != nil && *troop.LeaderID == userID {
		return true
	}
	response.Forbidden(c, "not the leader of this troop")
	return false
}
