package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soclink/soclink/internal/api/middleware"
	"github.com/soclink/soclink/internal/sources"
)

func (h *Handler) ListSources(c *gin.Context) {
	tenantID, ok := h.tenantParam(c)
	if !ok {
		return
	}

	list, err := h.sources.List(c.Request.Context(), middleware.Actor(c), tenantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": list})
}

func (h *Handler) SourceStats(c *gin.Context) {
	tenantID, ok := h.tenantParam(c)
	if !ok {
		return
	}

	stats, err := h.sources.Stats(c.Request.Context(), middleware.Actor(c), tenantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type CreateSourceRequest struct {
	TenantID   string  `json:"tenant_id" binding:"required,uuid"`
	Name       string  `json:"name" binding:"required"`
	SourceType string  `json:"source_type" binding:"required"`
	Host       string  `json:"host" binding:"required"`
	Vendor     *string `json:"vendor"`
	Product    *string `json:"product"`
	GroupName  *string `json:"group_name"`
}

func (h *Handler) CreateSource(c *gin.Context) {
	var req CreateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, err := h.sources.Create(c.Request.Context(), middleware.Actor(c), sources.CreateSourceInput{
		TenantID:   uuid.MustParse(req.TenantID),
		Name:       req.Name,
		SourceType: req.SourceType,
		Host:       req.Host,
		Vendor:     req.Vendor,
		Product:    req.Product,
		GroupName:  req.GroupName,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, src)
}

func (h *Handler) DeactivateSource(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source id"})
		return
	}

	if err := h.sources.Deactivate(c.Request.Context(), middleware.Actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// tenantParam resolves the tenant scope for per-tenant reads: clients
// default to their own tenant, SOC callers must name one.
func (h *Handler) tenantParam(c *gin.Context) (uuid.UUID, bool) {
	if v := c.Query("tenant_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
			return uuid.Nil, false
		}
		return id, true
	}
	actor := middleware.Actor(c)
	if actor.TenantID != nil {
		return *actor.TenantID, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id is required"})
	return uuid.Nil, false
}
