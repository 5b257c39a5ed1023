// Package auth guards the admin API surface.
package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminSecretHeader carries the admin secret on admin API requests.
const AdminSecretHeader = "X-Admin-Secret"

// RequireAdmin rejects requests whose admin secret does not match. An empty
// configured secret disables the admin surface entirely rather than leaving
// it open.
func RequireAdmin(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "authorization_error",
				"message": "Admin API is not configured",
			})
			return
		}

		provided := c.GetHeader(AdminSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "authorization_error",
				"message": "Invalid admin credentials",
			})
			return
		}

		c.Next()
	}
}
