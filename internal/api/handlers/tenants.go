package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soclink/soclink/internal/api/middleware"
	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/tenants"
)

type CreateTenantRequest struct {
	Name         string     `json:"name" binding:"required"`
	ShortName    string     `json:"short_name" binding:"required,alphanum,lowercase"`
	SIEMAPIURL   string     `json:"siem_api_url"`
	SIEMAPIKey   string     `json:"siem_api_key"`
	SLAConfig    core.JSONB `json:"sla_config"`
	ContactEmail *string    `json:"contact_email"`
	ContactPhone *string    `json:"contact_phone"`
}

func (h *Handler) CreateTenant(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, err := h.tenants.Create(c.Request.Context(), middleware.Actor(c), tenants.CreateInput{
		Name:         req.Name,
		ShortName:    req.ShortName,
		SIEMAPIURL:   req.SIEMAPIURL,
		SIEMAPIKey:   req.SIEMAPIKey,
		SLAConfig:    req.SLAConfig,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

func (h *Handler) ListTenants(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	list, err := h.tenants.List(c.Request.Context(), middleware.Actor(c), activeOnly)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": list})
}

func (h *Handler) GetTenant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant id"})
		return
	}

	tenant, err := h.tenants.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

type UpdateTenantRequest struct {
	Name         *string    `json:"name"`
	SIEMAPIURL   *string    `json:"siem_api_url"`
	SIEMAPIKey   *string    `json:"siem_api_key"`
	SLAConfig    core.JSONB `json:"sla_config"`
	ContactEmail *string    `json:"contact_email"`
	ContactPhone *string    `json:"contact_phone"`
}

func (h *Handler) UpdateTenant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant id"})
		return
	}
	var req UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, err := h.tenants.Update(c.Request.Context(), middleware.Actor(c), id, tenants.UpdateInput{
		Name:         req.Name,
		SIEMAPIURL:   req.SIEMAPIURL,
		SIEMAPIKey:   req.SIEMAPIKey,
		SLAConfig:    req.SLAConfig,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *Handler) DeactivateTenant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant id"})
		return
	}

	if err := h.tenants.Deactivate(c.Request.Context(), middleware.Actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
