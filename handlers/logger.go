package handlers

import (
	"restate/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getLogger(c *gin.Context) *zap.Logger {
	return middleware.RequestLogger(c)
}
