package middleware

import "github.com/gin-gonic/gin"

// NoStore forbids browsers and proxies from keeping responses. Every API
// response may carry patient data.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, private")
		c.Header("Pragma", "no-cache")
		c.Writer.Header().Add("Vary", "Authorization")
		c.Next()
	}
}
