package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amaravathi/tradeidentity/internal/server/auth"
)

// Context keys set by AuthMiddleware.
const (
	ctxUserID = "userID"
	ctxRoles  = "roles"
)

// AuthMiddleware validates the Bearer access token and stores the caller's
// user id and role codes in the request context.
func AuthMiddleware(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxRoles, claims.Roles)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated caller carries the
// given role code. Must run after AuthMiddleware.
func RequireRole(code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, _ := c.Get(ctxRoles)
		codes, ok := roles.([]string)
		if ok {
			for _, r := range codes {
				if r == code {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

func callerID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
