package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soclink/soclink/internal/access"
	"github.com/soclink/soclink/internal/api/middleware"
	"github.com/soclink/soclink/internal/core"
)

func (h *Handler) LatestSLA(c *gin.Context) {
	tenantID, ok := h.tenantParam(c)
	if !ok {
		return
	}
	if err := access.RequireRead(middleware.Actor(c), tenantID); err != nil {
		h.respondError(c, err)
		return
	}

	snap, err := h.sla.Latest(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"snapshot": nil})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": snap})
}

func (h *Handler) SLAHistory(c *gin.Context) {
	tenantID, ok := h.tenantParam(c)
	if !ok {
		return
	}
	if err := access.RequireRead(middleware.Actor(c), tenantID); err != nil {
		h.respondError(c, err)
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
		to = t
	}

	snapshots, err := h.sla.History(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}
