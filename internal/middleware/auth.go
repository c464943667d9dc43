package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pasassistant/internal/domain"
	"pasassistant/internal/service"
)

const (
	ContextKeyEmail  = "email"
	ContextKeyClaims = "claims"
)

// AuthMiddleware returns Gin middleware that validates bearer tokens and
// injects the caller's email.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetEmail extracts the authenticated email from the Gin context.
func GetEmail(c *gin.Context) (string, error) {
	val, exists := c.Get(ContextKeyEmail)
	if !exists {
		return "", domain.ErrUnauthorized
	}
	email, ok := val.(string)
	if !ok || email == "" {
		return "", domain.ErrUnauthorized
	}
	return email, nil
}
