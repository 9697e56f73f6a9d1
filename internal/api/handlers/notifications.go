package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soclink/soclink/internal/access"
	"github.com/soclink/soclink/internal/api/middleware"
)

func (h *Handler) ListNotifications(c *gin.Context) {
	tenantID, ok := h.tenantParam(c)
	if !ok {
		return
	}
	if err := access.RequireRead(middleware.Actor(c), tenantID); err != nil {
		h.respondError(c, err)
		return
	}

	unreadOnly := c.Query("unread") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	list, err := h.repo.ListNotifications(c.Request.Context(), tenantID, unreadOnly, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	tenantID, ok := h.tenantParam(c)
	if !ok {
		return
	}
	if err := access.RequireRead(middleware.Actor(c), tenantID); err != nil {
		h.respondError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := h.repo.MarkNotificationRead(c.Request.Context(), tenantID, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	tenantID, ok := h.tenantParam(c)
	if !ok {
		return
	}
	if err := access.RequireRead(middleware.Actor(c), tenantID); err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.repo.MarkAllNotificationsRead(c.Request.Context(), tenantID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
