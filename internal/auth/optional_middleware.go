package auth

import (
	"boardcafe/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// OptionalAuthMiddleware inspects for a token and sets the userID and role if present and valid,
// but does not fail if the token is missing or invalid.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFromRequest(c); tokenString != "" {
			if claims, err := jwt.ParseToken(tokenString); err == nil {
				c.Set("userID", claims.UserID)
				c.Set("role", claims.Role)
			}
		}
		c.Next()
	}
}
