package middlewares

import (
	"net/http"

	"smartorder/utils"

	"github.com/gin-gonic/gin"
)

// WSAuthMiddleware accepts the JWT from ?token= (browsers cannot set headers
// on a websocket upgrade) or from the Authorization header.
func WSAuthMiddleware(secret string, requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			tokenStr = bearerToken(c)
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing token"})
			return
		}

		claims, err := utils.ParseToken(tokenStr, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			return
		}
		if !hasRole(claims.Role, requiredRoles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "forbidden"})
			return
		}

		utils.SetIdentity(c, claims.UserID, claims.Role)
		c.Next()
	}
}
