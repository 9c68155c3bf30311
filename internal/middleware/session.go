package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/diet-tracker/internal/config"
	"github.com/diet-tracker/internal/service"
	"github.com/diet-tracker/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ContextKeySessionID is the key for the session id in gin context
	ContextKeySessionID = "session_id"
	// ContextKeyUserID is the key for the account id in gin context
	ContextKeyUserID = "user_id"

	tokenIssuer = "diet-tracker"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionCodec carries a session id to the client as a signed token whose
// expiry is the grant's validity window
type SessionCodec struct {
	secret     []byte
	cookieName string
	secure     bool
}

// NewSessionCodec creates a new SessionCodec
func NewSessionCodec(cfg config.SessionConfig) *SessionCodec {
	return &SessionCodec{
		secret:     []byte(cfg.Secret),
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
	}
}

// Encode signs sessionID into a token valid for ttl
func (c *SessionCodec) Encode(sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies the token and returns the session id it carries
func (c *SessionCodec) Decode(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidSessionToken
	}
	return claims.Subject, nil
}

// SetCookie hands the granted session id to the client
func (c *SessionCodec) SetCookie(ctx *gin.Context, grant *service.SessionGrant) error {
	token, err := c.Encode(grant.SessionID, grant.TTL)
	if err != nil {
		return err
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.cookieName, token, int(grant.TTL.Seconds()), "/", "", c.secure, true)
	return nil
}

// ReadSessionID returns the session id presented by the client, from the
// cookie or a Bearer header. Missing, expired or forged tokens yield "".
func (c *SessionCodec) ReadSessionID(ctx *gin.Context) string {
	token, err := ctx.Cookie(c.cookieName)
	if err != nil || token == "" {
		parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return ""
		}
		token = parts[1]
	}

	sessionID, err := c.Decode(token)
	if err != nil {
		return ""
	}
	return sessionID
}

// SessionMiddleware rejects requests whose session is not bound to an account
func SessionMiddleware(authService *service.AuthService, codec *SessionCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := codec.ReadSessionID(c)
		if sessionID == "" {
			response.Unauthorized(c, "missing or invalid session")
			c.Abort()
			return
		}

		user, err := authService.Validate(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				response.Unauthorized(c, "missing or invalid session")
			} else {
				LogError("session validation failed: %v", err)
				response.InternalError(c, "failed to validate session")
			}
			c.Abort()
			return
		}

		c.Set(ContextKeySessionID, sessionID)
		c.Set(ContextKeyUserID, user.ID)

		c.Next()
	}
}

// GetSessionID gets the session id from the gin context
func GetSessionID(c *gin.Context) string {
	sessionID, exists := c.Get(ContextKeySessionID)
	if !exists {
		return ""
	}
	return sessionID.(string)
}

// GetUserID gets the account id from the gin context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return ""
	}
	return userID.(string)
}
