package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"courtly/utils"
)

// JWTAuthAdminMiddleware validates the caller's bearer token and stores its
// subject and role in the request context. Role enforcement itself happens in
// the admin service.
func JWTAuthAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		subject, role, err := utils.ExtractRoleFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized admin access"})
			return
		}

		c.Set("userId", subject)
		c.Set("role", role)
		c.Next()
	}
}
