// README: Header-based caller identification middleware.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const callerEmailKey = "callerEmail"

// Auth requires an X-User-Email header on every request and makes it
// available to handlers via CallerEmail. Authorization itself happens in
// the booking service, which checks ownership per operation.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader("X-User-Email")
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-Email header"})
			return
		}
		c.Set(callerEmailKey, email)
		c.Next()
	}
}

// CallerEmail returns the identity set by Auth, or "" outside it.
func CallerEmail(c *gin.Context) string {
	return c.GetString(callerEmailKey)
}
