package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moltbook/api/internal/models"
	"github.com/moltbook/api/pkg/logging"
)

// Context keys set by Middleware
const (
	ContextUserID   = "userId"
	ContextUsername = "username"
)

// APIKeyLookup resolves agent API keys to users
type APIKeyLookup interface {
	GetByAPIKey(ctx context.Context, key string) (*models.User, error)
}

// failure is a rejected credential and the response it earns
type failure struct {
	status  int
	message string
}

// Middleware authenticates "Authorization: Bearer <credential>" where the
// credential is a JWT or an agent API key
func Middleware(tokens *TokenService, keys APIKeyLookup) gin.HandlerFunc {
	logger := logging.WithComponent("auth")

	return func(c *gin.Context) {
		credential := bearer(c.GetHeader("Authorization"))
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		if f := authenticate(c, tokens, keys, credential, logger); f != nil {
			c.AbortWithStatusJSON(f.status, gin.H{"message": f.message})
			return
		}
		c.Next()
	}
}

// Optional authenticates like Middleware when a credential is present, and
// lets the request through anonymously when it is absent or rejected
func Optional(tokens *TokenService, keys APIKeyLookup) gin.HandlerFunc {
	logger := logging.WithComponent("auth")

	return func(c *gin.Context) {
		if credential := bearer(c.GetHeader("Authorization")); credential != "" {
			if f := authenticate(c, tokens, keys, credential, logger); f != nil {
				logger.Debug("Ignoring rejected credential", zap.String("reason", f.message))
			}
		}
		c.Next()
	}
}

// authenticate resolves credential and stores the user in the context
func authenticate(c *gin.Context, tokens *TokenService, keys APIKeyLookup, credential string, logger *zap.Logger) *failure {
	if IsAPIKey(credential) {
		user, err := keys.GetByAPIKey(c.Request.Context(), credential)
		if err != nil {
			logger.Error("API key lookup failed", zap.Error(err))
			return &failure{http.StatusInternalServerError, "Authentication failed"}
		}
		if user == nil {
			return &failure{http.StatusUnauthorized, "Invalid token"}
		}
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)
		return nil
	}

	claims, err := tokens.Parse(credential)
	if err != nil {
		return &failure{http.StatusUnauthorized, "Invalid token"}
	}
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	return nil
}

// UserID returns the authenticated user's ID, or "" for anonymous requests
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func bearer(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
