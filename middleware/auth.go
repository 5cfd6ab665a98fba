package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/wuzamanfou/smart-brain-api/internal/core/domain"
)

// principalIDKey is the gin context key carrying the authenticated user id.
const principalIDKey = "principal_id"

// PrincipalID returns the authenticated user id attached by RequireAuth.
func PrincipalID(c *gin.Context) (string, bool) {
	id := c.GetString(principalIDKey)
	return id, id != ""
}

// SessionValidator resolves a bearer token to a user id.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// AuthMiddleware guards protected routes. Per request it extracts the
// authorization header, validates the session and either forwards with the
// resolved user id in the context or short-circuits: 401 for any
// authentication failure, 500 only when the store is unreachable. It never
// retries within a request.
type AuthMiddleware struct {
	sessions SessionValidator
}

// NewAuthMiddleware creates an AuthMiddleware backed by the given validator.
func NewAuthMiddleware(sessions SessionValidator) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireAuth is the gin handler enforcing the guard.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := c.GetHeader("authorization")
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		userID, err := a.sessions.Validate(c.Request.Context(), tok)
		switch {
		case err == nil:
			c.Set(principalIDKey, userID)
			c.Next()
		case errors.Is(err, domain.ErrStoreUnavailable):
			log.Ctx(c.Request.Context()).Error().Err(err).Msg("Session store unreachable during validation")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		default:
			// Missing, malformed, expired and revoked all look the same.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		}
	}
}
