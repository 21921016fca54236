// Package http is the gin-based REST transport of the identity server.
// Handlers translate between JSON and the service facade; no business
// rules live here.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amaravathi/tradeidentity/internal/common"
)

// writeError maps service errors onto HTTP statuses with generic messages.
// Internal details never cross the boundary.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	case errors.Is(err, common.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, common.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
	case errors.Is(err, common.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Resource already exists"})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error"})
	}
}
