package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/collabcare-api/internal/service/audit"
)

// AuditClient attaches the caller's address and user agent to the request
// context so audit entries written by services can record them.
func AuditClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.WithClient(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
