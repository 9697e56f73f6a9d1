package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/auth"
	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/incidents"
	"github.com/soclink/soclink/internal/siem"
)

// respondError maps service errors onto HTTP status codes. Rejected
// transitions get a structured body naming the current state and the
// allowed targets so clients can fix their request without guessing.
func (h *Handler) respondError(c *gin.Context, err error) {
	var terr *incidents.TransitionError
	if errors.As(err, &terr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "invalid status transition",
			"current_status": terr.From,
			"requested":      terr.To,
			"allowed":        terr.Allowed,
		})
		return
	}

	var apiErr *siem.APIError
	var connErr *siem.ConnError
	switch {
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, core.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, core.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case errors.As(err, &apiErr), errors.As(err, &connErr):
		h.logger.Warn("upstream SIEM error", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream SIEM unavailable"})
	default:
		h.logger.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
