package handler

import (
	"errors"

	"github.com/diet-tracker/internal/middleware"
	"github.com/diet-tracker/internal/service"
	"github.com/diet-tracker/pkg/crypto"
	"github.com/diet-tracker/pkg/response"
	"github.com/gin-gonic/gin"
)

// writeServiceError maps core errors to client-visible failures. Anything
// unclassified is logged and reported generically.
func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrEmailNotFound):
		response.NotFound(c, "email not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, "incorrect password")
	case errors.Is(err, service.ErrUnauthenticated):
		response.Unauthorized(c, "missing or invalid session")
	case errors.Is(err, service.ErrEmailTaken):
		response.Conflict(c, "email already taken")
	case errors.Is(err, service.ErrSessionTaken):
		response.Conflict(c, "session already bound to an account")
	case errors.Is(err, crypto.ErrPasswordTooLong):
		response.BadRequest(c, "password exceeds 72 bytes")
	default:
		middleware.LogError("%s: %v", fallback, err)
		response.InternalError(c, fallback)
	}
}
