package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Legalistas/brixar-sub002/internal/auth"
	"github.com/Legalistas/brixar-sub002/internal/models"
	"github.com/Legalistas/brixar-sub002/internal/services"
)

const (
	// ContextKeyUserID holds the key for user ID in Gin context.
	ContextKeyUserID = "userID"
	// ContextKeyRole holds the key for the caller's role in Gin context.
	ContextKeyRole = "role"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := auth.ValidateJWT(parts[1], jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// RequireRoles lets the request through only when the caller holds one of roles.
// Assumes AuthMiddleware runs first.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !p.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role for this operation"})
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the authenticated caller set by AuthMiddleware.
func GetPrincipal(c *gin.Context) (services.Principal, bool) {
	userID, ok := c.Get(ContextKeyUserID)
	if !ok {
		return services.Principal{}, false
	}
	role, ok := c.Get(ContextKeyRole)
	if !ok {
		return services.Principal{}, false
	}
	id, okID := userID.(uint)
	r, okRole := role.(models.Role)
	if !okID || !okRole {
		return services.Principal{}, false
	}
	return services.Principal{UserID: id, Role: r}, true
}
