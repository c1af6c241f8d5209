package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-pos-server/internal/auth"
	"go-pos-server/internal/errs"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	KeyUserID   = "userID"
	KeyUsername = "username"
	KeyRole     = "role"
	KeyToken    = "token"
)

// Authenticator verifies a bearer token against the session authority.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header || token == "" {
		return "", false
	}
	return token, true
}

// AuthMiddleware checks that the request carries the account's current
// session token. A token replaced by a newer login is rejected even though
// its signature is still valid.
func AuthMiddleware(authority Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		token, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer"})
			return
		}

		claims, err := authority.Authenticate(c.Request.Context(), token)
		if err != nil {
			status := http.StatusUnauthorized
			if !errs.IsUserFacing(err) {
				status = http.StatusServiceUnavailable
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}

		c.Set(KeyUserID, claims.UserID())
		c.Set(KeyUsername, claims.Username)
		c.Set(KeyRole, claims.Role)
		c.Set(KeyToken, token)
		c.Next()
	}
}

// RequireRole is a secondary guard that checks for specific permissions
func RequireRole(allowedRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(KeyRole) != allowedRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
			return
		}
		c.Next()
	}
}
