package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prajxal/fakenews-api/internal/auth"
	"github.com/prajxal/fakenews-api/internal/service"
	"github.com/prajxal/fakenews-api/internal/store"
)

// Context keys set by AuthRequired for downstream handlers.
const (
	ctxUserID   = "userId"
	ctxUsername = "username"
	ctxEmail    = "email"
)

func currentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// AuthRequired gates a route group on a valid bearer token. The token must
// verify AND its subject must still resolve to a stored user; a deleted
// account invalidates all its outstanding tokens. Expired and malformed
// tokens are told apart so clients know when a fresh login is needed.
func AuthRequired(tokens *auth.Tokens, users service.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access denied. No token provided."})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token."})
			return
		}

		claims, err := tokens.Verify(parts[1])
		if errors.Is(err, auth.ErrTokenExpired) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired."})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token."})
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, store.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token. User not found."})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authentication error."})
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Set(ctxUsername, user.Username)
		c.Set(ctxEmail, user.Email)
		c.Next()
	}
}
