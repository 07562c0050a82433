// internal/middleware/auth_middleware.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"print-server/internal/config"
)

// BasicAuthMiddleware requires HTTP basic credentials from
// security.basic_auth. With no accounts configured every request passes.
func BasicAuthMiddleware(config *config.SecurityConfig) gin.HandlerFunc {
	if len(config.BasicAuth) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return gin.BasicAuthForRealm(gin.Accounts(config.BasicAuth), "print-server")
}
