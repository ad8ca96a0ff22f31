package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"restate/models"
	"restate/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by JWTAuthUserMiddleware.
const (
	ContextUserID    = "userID"
	ContextIdentity  = "identity"
	ContextTokenHash = "tokenHash"
	ContextTokenTTL  = "tokenTTL"
)

// RevocationChecker reports whether a token hash was revoked before expiry.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

// UserProvisioner makes sure an authenticated identity has a user record.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, identity models.Identity) (*models.User, error)
}

func unauthorized(c *gin.Context, details string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{
		Message: "Insufficient authorization",
		Details: details,
	})
}

// JWTAuthUserMiddleware authenticates the bearer token and provisions the caller.
// revocations may be nil when no revocation cache is configured.
func JWTAuthUserMiddleware(revocations RevocationChecker, users UserProvisioner) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := utils.GetLogger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		identity, ttl, err := utils.ExtractIdentityFromToken(tokenString)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}

		tokenHash := utils.HashToken(tokenString)
		if revocations != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			revoked, err := revocations.IsRevoked(ctx, tokenHash)
			cancel()
			if err != nil {
				// Treat an unreachable cache as a miss rather than locking everyone out.
				logger.Warn("Revocation lookup failed", zap.Error(err))
			} else if revoked {
				unauthorized(c, "token revoked")
				return
			}
		}

		if _, err := users.EnsureUser(c.Request.Context(), identity); err != nil {
			utils.JSONError(c, http.StatusInternalServerError, "Authentication error", err.Error())
			return
		}

		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextIdentity, identity)
		c.Set(ContextTokenHash, tokenHash)
		c.Set(ContextTokenTTL, ttl)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or "" when unauthenticated.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
