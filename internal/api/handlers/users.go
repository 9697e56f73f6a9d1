package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soclink/soclink/internal/api/middleware"
	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/users"
)

type CreateUserRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=12"`
	Name     string  `json:"name" binding:"required"`
	Role     string  `json:"role" binding:"required"`
	TenantID *string `json:"tenant_id"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := users.CreateInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     core.Role(req.Role),
	}
	if req.TenantID != nil {
		id, err := uuid.Parse(*req.TenantID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
			return
		}
		in.TenantID = &id
	}

	user, err := h.users.Create(c.Request.Context(), middleware.Actor(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) ListUsers(c *gin.Context) {
	var tenantID *uuid.UUID
	if v := c.Query("tenant_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tenant_id"})
			return
		}
		tenantID = &id
	}

	list, err := h.users.List(c.Request.Context(), middleware.Actor(c), tenantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

type UpdateUserRequest struct {
	Name *string `json:"name"`
	Role *string `json:"role"`
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := users.UpdateInput{Name: req.Name}
	if req.Role != nil {
		role := core.Role(*req.Role)
		in.Role = &role
	}

	user, err := h.users.Update(c.Request.Context(), middleware.Actor(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=12"`
}

func (h *Handler) ResetUserPassword(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), middleware.Actor(c), id, req.Password); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeactivateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.users.Deactivate(c.Request.Context(), middleware.Actor(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
