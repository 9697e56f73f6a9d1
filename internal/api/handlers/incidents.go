package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soclink/soclink/internal/api/middleware"
	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/incidents"
)

// PreviewIncident fetches the normalized upstream incident for review
// before publishing.
func (h *Handler) PreviewIncident(c *gin.Context) {
	externalID, err := strconv.ParseInt(c.Param("external_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid external incident id"})
		return
	}

	preview, err := h.incidents.Preview(c.Request.Context(), middleware.Actor(c), externalID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

type PublishIncidentRequest struct {
	ExternalID      int64   `json:"external_id" binding:"required"`
	TenantID        string  `json:"tenant_id" binding:"required,uuid"`
	Recommendations string  `json:"recommendations" binding:"required"`
	SOCActions      *string `json:"soc_actions"`
}

func (h *Handler) PublishIncident(c *gin.Context) {
	var req PublishIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tenantID := uuid.MustParse(req.TenantID)

	incident, err := h.incidents.Publish(c.Request.Context(), middleware.Actor(c), incidents.PublishInput{
		ExternalID:      req.ExternalID,
		TenantID:        tenantID,
		Recommendations: req.Recommendations,
		SOCActions:      req.SOCActions,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, incident)
}

func (h *Handler) ListIncidents(c *gin.Context) {
	filter := core.IncidentFilter{
		Status:   core.IncidentStatus(c.Query("status")),
		Priority: core.Priority(c.Query("priority")),
	}
	if v := c.Query("tenant_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
			return
		}
		filter.TenantID = &id
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
		filter.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
		filter.To = &t
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "25"))

	summaries, total, err := h.incidents.List(c.Request.Context(), middleware.Actor(c), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"incidents": summaries,
		"total":     total,
		"page":      filter.Page,
		"per_page":  filter.PerPage,
	})
}

func (h *Handler) GetIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}

	detail, err := h.incidents.GetDetail(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type ChangeStatusRequest struct {
	Status  string  `json:"status" binding:"required"`
	Comment *string `json:"comment"`
}

func (h *Handler) ChangeIncidentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incident, err := h.incidents.ChangeStatus(c.Request.Context(), middleware.Actor(c), id,
		core.IncidentStatus(req.Status), req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, incident)
}

func (h *Handler) AcknowledgeIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}

	incident, err := h.incidents.Acknowledge(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, incident)
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) AddIncidentComment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.incidents.AddComment(c.Request.Context(), middleware.Actor(c), id, req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

type ClientResponseRequest struct {
	Response string `json:"response" binding:"required"`
}

func (h *Handler) UpdateClientResponse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}
	var req ClientResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incident, err := h.incidents.UpdateClientResponse(c.Request.Context(), middleware.Actor(c), id, req.Response)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, incident)
}

type SOCFieldsRequest struct {
	Recommendations *string `json:"recommendations"`
	SOCActions      *string `json:"soc_actions"`
}

func (h *Handler) UpdateSOCFields(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}
	var req SOCFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incident, err := h.incidents.UpdateSOCFields(c.Request.Context(), middleware.Actor(c), id,
		req.Recommendations, req.SOCActions)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, incident)
}

type IOCAssetsRequest struct {
	IOCs           []string `json:"iocs"`
	AffectedAssets []string `json:"affected_assets"`
}

func (h *Handler) UpdateIOCAndAssets(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}
	var req IOCAssetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incident, err := h.incidents.UpdateIOCAndAssets(c.Request.Context(), middleware.Actor(c), id,
		req.IOCs, req.AffectedAssets)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, incident)
}
