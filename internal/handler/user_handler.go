package handler

import (
	"github.com/diet-tracker/internal/middleware"
	"github.com/diet-tracker/internal/service"
	"github.com/diet-tracker/pkg/response"
	"github.com/gin-gonic/gin"
)

// UserHandler handles session and credential API requests
type UserHandler struct {
	authService *service.AuthService
	codec       *middleware.SessionCodec
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(authService *service.AuthService, codec *middleware.SessionCodec) *UserHandler {
	return &UserHandler{
		authService: authService,
		codec:       codec,
	}
}

// Identify hands an anonymous visitor a session
// POST /users/session
func (h *UserHandler) Identify(c *gin.Context) {
	grant, err := h.authService.Identify(c.Request.Context(), h.codec.ReadSessionID(c))
	if err != nil {
		writeServiceError(c, err, "failed to create session")
		return
	}

	if err := h.codec.SetCookie(c, grant); err != nil {
		writeServiceError(c, err, "failed to create session")
		return
	}

	response.Created(c, gin.H{"state": grant.State.String()})
}

// Signup handles account creation
// POST /users/signup
func (h *UserHandler) Signup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	grant, err := h.authService.Signup(c.Request.Context(), &req, h.codec.ReadSessionID(c))
	if err != nil {
		writeServiceError(c, err, "failed to sign up")
		return
	}

	if err := h.codec.SetCookie(c, grant); err != nil {
		writeServiceError(c, err, "failed to sign up")
		return
	}

	response.Created(c, gin.H{
		"username": req.Username,
		"email":    req.Email,
	})
}

// Login handles user login
// POST /users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	grant, err := h.authService.Login(c.Request.Context(), &req, h.codec.ReadSessionID(c))
	if err != nil {
		writeServiceError(c, err, "failed to login")
		return
	}

	if err := h.codec.SetCookie(c, grant); err != nil {
		writeServiceError(c, err, "failed to login")
		return
	}

	response.Success(c, nil)
}

// UpdateCredentials handles username/email/password changes
// PUT /users/update
func (h *UserHandler) UpdateCredentials(c *gin.Context) {
	var req service.UpdateCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	updated, err := h.authService.UpdateCredentials(c.Request.Context(), middleware.GetSessionID(c), &req)
	if err != nil {
		writeServiceError(c, err, "failed to update credentials")
		return
	}

	response.Success(c, gin.H{"updated": updated})
}

// RegisterRoutes registers user routes
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, sessionMiddleware gin.HandlerFunc) {
	users := rg.Group("/users")
	{
		users.POST("/session", h.Identify)
		users.POST("/signup", h.Signup)
		users.POST("/login", h.Login)
		users.PUT("/update", sessionMiddleware, h.UpdateCredentials)
	}
}
