package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soclink/soclink/internal/api/middleware"
)

func (h *Handler) DashboardSummary(c *gin.Context) {
	var tenantID *uuid.UUID
	if v := c.Query("tenant_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
			return
		}
		tenantID = &id
	}

	summary, err := h.dashboard.Summarize(c.Request.Context(), middleware.Actor(c), tenantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) ListAudit(c *gin.Context) {
	var tenantID *uuid.UUID
	if v := c.Query("tenant_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
			return
		}
		tenantID = &id
	}

	logs, err := h.repo.ListAudit(c.Request.Context(), tenantID, 200)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}
