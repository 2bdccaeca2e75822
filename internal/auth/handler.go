package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SwipeSavdev/camp-card-sub005/internal/models"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/response"
	"github.com/SwipeSavdev/camp-card-sub005/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"` // optional, defaults to customer
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.Role(req.Role)
	switch role {
	case models.RoleScout, models.RoleMerchant, models.RoleCustomer:
	case "":
		role = models.RoleCustomer
	default:
		// admin/council/leader accounts are provisioned, not self-registered
		response.Forbidden(c, "role not available for self-registration")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	u := &models.User{
		Email:    req.Email,
		Password: hashed,
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     role,
	}
	if err := h.repo.Create(c.Request.Context(), u); err != nil {
		h.logger.Warn("register failed", zap.Error(err), zap.String("email", req.Email))
		response.Conflict(c, "email already registered")
		return
	}

	token, err := h.jwt.Generate(u.ID, u.Email, string(u.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: u.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	u, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || !utils.CheckPassword(req.Password, u.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(u.ID, u.Email, string(u.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: u.ToPublic()})
}

// List handles GET /users (admin only). Query ?role= filters by role.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), c.Query("role"))
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}
