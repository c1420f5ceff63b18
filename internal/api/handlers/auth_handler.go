package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Legalistas/brixar-sub002/internal/auth"
	"github.com/Legalistas/brixar-sub002/internal/config"
	"github.com/Legalistas/brixar-sub002/internal/models"
	"github.com/Legalistas/brixar-sub002/internal/services"
)

// AuthHandler issues session tokens.
type AuthHandler struct {
	cfg         *config.Config
	userService services.IUserService
}

func NewAuthHandler(cfg *config.Config, userService services.IUserService) *AuthHandler {
	return &AuthHandler{cfg: cfg, userService: userService}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) session(c *gin.Context, status int, user *models.User) {
	token, err := auth.GenerateJWT(user.ID, user.Role, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, SessionResponse{Token: token, User: user})
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.session(c, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.session(c, http.StatusOK, user)
}
