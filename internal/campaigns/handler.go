package campaigns

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/internal/councils"
	"github.com/SwipeSavdev/camp-card-sub005/internal/middleware"
	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/internal/notifications"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/storage"
)

// Handler handles campaign HTTP endpoints.
type Handler struct {
	repo     *Repository
	councils *councils.Repository
	notify   *notifications.Service
	s3       *storage.S3
	logger   *zap.Logger
}

// NewHandler creates a campaigns handler.
func NewHandler(repo *Repository, councilRepo *councils.Repository, notify *notifications.Service,
	s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, councils: councilRepo, notify: notify, s3: s3, logger: logger}
}

type campaignRequest struct {
	CouncilID uuid.UUID  `json:"council_id" binding:"required"`
	Title     string     `json:"title" binding:"required"`
	Body      string     `json:"body" binding:"required"`
	Channel   string     `json:"channel" binding:"required"`
	TroopID   *uuid.UUID `json:"troop_id"`
}

// Create handles POST /campaigns.
func (h *Handler) Create(c *gin.Context) {
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "council_id, title, body and channel are required")
		return
	}
	if req.Channel != models.CampaignChannelEmail && req.Channel != models.CampaignChannelPush {
		response.BadRequest(c, "channel must be email or push")
		return
	}
	if !h.canManage(c, req.CouncilID) {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	cp := &models.Campaign{
		CouncilID: req.CouncilID,
		Title:     req.Title,
		Body:      req.Body,
		Channel:   req.Channel,
		TroopID:   req.TroopID,
		CreatedBy: userID,
	}
	if err := h.repo.Create(c.Request.Context(), cp); err != nil {
		response.Internal(c, "failed to create campaign")
		return
	}
	response.Created(c, cp)
}

// ListByCouncil handles GET /councils/:id/campaigns.
func (h *Handler) ListByCouncil(c *gin.Context) {
	councilID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid council id")
		return
	}
	if !h.canManage(c, councilID) {
		return
	}
	list, err := h.repo.ListByCouncil(c.Request.Context(), councilID)
	if err != nil {
		response.Internal(c, "failed to list campaigns")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /campaigns/:id.
func (h *Handler) GetByID(c *gin.Context) {
	cp, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, cp)
}

// Send handles POST /campaigns/:id/send. Resolves the audience, queues one
// notification per recipient, and marks the campaign sent exactly once.
func (h *Handler) Send(c *gin.Context) {
	cp, ok := h.load(c)
	if !ok {
		return
	}
	if cp.Status != models.CampaignStatusDraft {
		response.Conflict(c, "campaign already sent")
		return
	}

	recipients, err := h.repo.Recipients(c.Request.Context(), cp.CouncilID, cp.TroopID)
	if err != nil {
		response.Internal(c, "failed to resolve recipients")
		return
	}
	if err := h.repo.MarkSent(c.Request.Context(), cp.ID, len(recipients)); err != nil {
		if errors.Is(err, ErrAlreadySent) {
			response.Conflict(c, "campaign already sent")
			return
		}
		response.Internal(c, "failed to mark campaign sent")
		return
	}

	for _, rec := range recipients {
		recID := rec.UserID
		h.notify.Notify(c.Request.Context(), &models.Notification{
			Type:        models.NotificationTypeCampaign,
			Channel:     cp.Channel,
			RecipientID: &recID,
			Recipient:   rec.Email,
			Subject:     cp.Title,
			Body:        cp.Body,
		})
	}
	h.logger.Info("campaign sent",
		zap.String("campaign_id", cp.ID.String()),
		zap.Int("recipients", len(recipients)),
	)

	cp.Status = models.CampaignStatusSent
	cp.RecipientCount = len(recipients)
	response.OK(c, cp)
}

// UploadMedia handles POST /campaigns/:id/media (multipart).
func (h *Handler) UploadMedia(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "media storage not configured")
		return
	}
	cp, ok := h.load(c)
	if !ok {
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

	key := storage.CampaignMediaKey(cp.ID.String(), fileHeader.Filename)
	if _, err := h.s3.Upload(c.Request.Context(), key, storage.ContentTypeForFilename(fileHeader.Filename), f, fileHeader.Size); err != nil {
		h.logger.Error("campaign media upload failed", zap.Error(err), zap.String("campaign_id", cp.ID.String()))
		response.Internal(c, "failed to upload media")
		return
	}
	if err := h.repo.SetMediaKey(c.Request.Context(), cp.ID, key); err != nil {
		response.Internal(c, "failed to save media key")
		return
	}
	response.OK(c, gin.H{"campaign_id": cp.ID, "media_key": key})
}

// load fetches the :id campaign and checks council access. Writes the
// response on failure.
func (h *Handler) load(c *gin.Context) (*models.Campaign, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return nil, false
	}
	cp, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "campaign not found")
			return nil, false
		}
		response.Internal(c, "failed to load campaign")
		return nil, false
	}
	if !h.canManage(c, cp.CouncilID) {
		return nil, false
	}
	return cp, true
}

func (h *Handler) canManage(c *gin.Context, councilID uuid.UUID) bool {
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
