package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"boardcafe/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// ValidationErrorResponse names the rejected field.
type ValidationErrorResponse struct {
	Error string `json:"error" example:"end_time: must be after start_time"`
	Field string `json:"field" example:"end_time"`
}

// respondError writes the status and body for an error returned by the
// service layer.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to do this"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
