package handlers

import (
	"context"
	"net/http"
	"time"

	"restate/middleware"
	"restate/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenRevoker invalidates a token before it expires.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error
}

// SessionHandler ends authenticated sessions.
type SessionHandler struct {
	Revoker TokenRevoker
}

// LogoutHandler handles POST /api/session/logout by revoking the caller's token.
func (h *SessionHandler) LogoutHandler(c *gin.Context) {
	hash := c.GetString(middleware.ContextTokenHash)
	ttl, _ := c.Get(middleware.ContextTokenTTL)
	remaining, _ := ttl.(time.Duration)

	if err := h.Revoker.Revoke(c.Request.Context(), hash, remaining); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to revoke token", err.Error())
		return
	}
	getLogger(c).Info("Session revoked", zap.String("userId", middleware.CurrentUserID(c)))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
