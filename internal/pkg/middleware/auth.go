package middleware

import (
	"net/http"
	"strings"

	"backcheck_api/pkg/response"
	"backcheck_api/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TokenBlacklist answers whether a token id was revoked by logout.
type TokenBlacklist interface {
	Contains(jti string) bool
}

var blacklist TokenBlacklist

// SetTokenBlacklist installs the revocation check used by AuthMiddleware.
// A nil blacklist disables the check (tests, tools).
func SetTokenBlacklist(b TokenBlacklist) {
	blacklist = b
}

// AuthMiddleware validates the Bearer token and stores userID/role in the
// request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		// Logged-out tokens stay invalid until natural expiry.
		if blacklist != nil && claims.ID != "" && blacklist.Contains(claims.ID) {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Token has been revoked")
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("jti", claims.ID)

		c.Next()
	}
}

// AdminMiddleware requires the admin role set by AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Error(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
			c.Abort()
			return
		}

		if r, ok := role.(string); !ok || r != "admin" {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Admin permission required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or "" when unset.
func CurrentUserID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// IsAdmin reports whether the authenticated user has the admin role.
func IsAdmin(c *gin.Context) bool {
	if v, ok := c.Get("role"); ok {
		if r, ok := v.(string); ok {
			return r == "admin"
		}
	}
	return false
}
