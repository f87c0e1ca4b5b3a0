package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mr-mark-a/messagecaller/internal/auth"
)

const (
	userIDContextKey    = "userID"
	sessionIDContextKey = "sessionID"
)

// SessionCheck reports whether sessionID is still the live session of
// userID. Tokens from replaced or closed sessions are rejected.
type SessionCheck func(userID, sessionID string) bool

func UserIDFromContext(c *gin.Context) (string, bool) {
	return stringFromContext(c, userIDContextKey)
}

func SessionIDFromContext(c *gin.Context) (string, bool) {
	return stringFromContext(c, sessionIDContextKey)
}

func stringFromContext(c *gin.Context, key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	value, ok := v.(string)
	return value, ok && value != ""
}

func RequireAuth(cfg auth.TokenConfig, live SessionCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			return
		}

		claims, err := auth.VerifyToken(parts[1], cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			return
		}
		if live != nil && !live(claims.UserID, claims.SessionID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session is no longer active"})
			return
		}

		c.Set(userIDContextKey, claims.UserID)
		c.Set(sessionIDContextKey, claims.SessionID)
		c.Next()
	}
}
