// internal/middleware/request_id_middleware.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request ID in and out of the server
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key the response helpers read
	RequestIDKey = "request_id"
)

// RequestIDMiddleware tags each request with an ID, reusing the caller's
// X-Request-ID when it is present
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}
