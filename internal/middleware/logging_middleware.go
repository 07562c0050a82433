// internal/middleware/logging_middleware.go
package middleware

import (
	"print-server/internal/utils"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggingMiddleware logs every request with its status and duration
func LoggingMiddleware(logger *utils.ServiceLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		duration := time.Since(startTime)

		requestLogger := logger
		if requestID := c.GetString(RequestIDKey); requestID != "" {
			requestLogger = logger.WithRequestID(requestID)
		}

		requestLogger.LogAPIRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.Request.UserAgent(),
			c.ClientIP(),
			c.Writer.Status(),
			duration,
		)
	}
}
