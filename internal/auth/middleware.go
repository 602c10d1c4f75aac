package auth

import (
	"net/http"
	"strings"

	"boardcafe/backend/internal/config"
	"boardcafe/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// tokenFromRequest returns the session token from the cookie or, failing
// that, from an "Authorization: Bearer" header.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(config.AppConfig.CookieName); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// AuthMiddleware rejects requests without a valid session token. On success
// it stores "userID" (uint) and "role" (string) in the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims, err := jwt.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user, or 0 when there is none.
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// CurrentRole returns the role claim of the authenticated user.
func CurrentRole(c *gin.Context) string {
	return c.GetString("role")
}
