package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/api/handlers"
	"github.com/soclink/soclink/internal/api/middleware"
	"github.com/soclink/soclink/internal/auth"
	"github.com/soclink/soclink/internal/config"
)

type Server struct {
	Config *config.Config
	Router *gin.Engine
}

func NewServer(cfg *config.Config, authSvc *auth.Service, handler *handlers.Handler, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(middleware.Logger(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	server := &Server{
		Config: cfg,
		Router: router,
	}
	server.setupRoutes(authSvc, handler)
	return server
}

func (s *Server) setupRoutes(authSvc *auth.Service, h *handlers.Handler) {
	s.Router.GET("/health", handlers.HealthCheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := s.Router.Group("/api/v1/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.RefreshToken)
	}

	api := s.Router.Group("/api/v1")
	api.Use(middleware.AuthRequired(authSvc))

	// Incident lifecycle
	{
		api.GET("/incidents", h.ListIncidents)
		api.GET("/incidents/:id", h.GetIncident)
		api.POST("/incidents/:id/status", h.ChangeIncidentStatus)
		api.POST("/incidents/:id/acknowledge", h.AcknowledgeIncident)
		api.POST("/incidents/:id/comments", h.AddIncidentComment)
		api.PUT("/incidents/:id/client-response", h.UpdateClientResponse)
	}

	// SOC-only incident operations
	soc := api.Group("")
	soc.Use(middleware.RequireSOC())
	{
		soc.GET("/siem/incidents/:external_id/preview", h.PreviewIncident)
		soc.POST("/incidents", h.PublishIncident)
		soc.PUT("/incidents/:id/soc-fields", h.UpdateSOCFields)
		soc.PUT("/incidents/:id/ioc-assets", h.UpdateIOCAndAssets)
		soc.GET("/audit", h.ListAudit)
	}

	// Log sources and SLA
	{
		api.GET("/sources", h.ListSources)
		api.GET("/sources/stats", h.SourceStats)
		api.GET("/sla/latest", h.LatestSLA)
		api.GET("/sla/history", h.SLAHistory)
	}

	// Notifications and dashboard
	{
		api.GET("/notifications", h.ListNotifications)
		api.POST("/notifications/:id/read", h.MarkNotificationRead)
		api.POST("/notifications/read-all", h.MarkAllNotificationsRead)
		api.GET("/dashboard", h.DashboardSummary)
	}

	// Tenant and user administration
	admin := api.Group("")
	admin.Use(middleware.RequireSOCAdmin())
	{
		admin.POST("/tenants", h.CreateTenant)
		admin.PUT("/tenants/:id", h.UpdateTenant)
		admin.DELETE("/tenants/:id", h.DeactivateTenant)
		admin.POST("/sources", h.CreateSource)
		admin.DELETE("/sources/:id", h.DeactivateSource)
		admin.POST("/users", h.CreateUser)
		admin.PUT("/users/:id", h.UpdateUser)
		admin.POST("/users/:id/reset-password", h.ResetUserPassword)
		admin.DELETE("/users/:id", h.DeactivateUser)
	}

	// Tenant reads are scoped inside the service, not admin-only.
	api.GET("/tenants", h.ListTenants)
	api.GET("/tenants/:id", h.GetTenant)
	api.GET("/users", h.ListUsers)
}
