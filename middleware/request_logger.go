package middleware

import (
	"restate/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// ContextLogger holds the request-scoped *zap.Logger.
	ContextLogger = "logger"

	RequestIDHeader = "X-Request-ID"
)

// RequestLoggerMiddleware attaches a logger tagged with the request id, method
// and route. An incoming X-Request-ID is kept, otherwise one is generated.
func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		logger := utils.GetLogger().With(
			zap.String("requestId", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)
		c.Set(ContextLogger, logger)
		c.Next()
	}
}

// RequestLogger returns the logger set by RequestLoggerMiddleware, or the
// global one when the middleware did not run.
func RequestLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Get(ContextLogger); ok {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger().With(zap.String("path", c.FullPath()))
}
