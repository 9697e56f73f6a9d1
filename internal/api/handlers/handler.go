package handlers

import (
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/auth"
	"github.com/soclink/soclink/internal/dashboard"
	"github.com/soclink/soclink/internal/db"
	"github.com/soclink/soclink/internal/incidents"
	"github.com/soclink/soclink/internal/sla"
	"github.com/soclink/soclink/internal/sources"
	"github.com/soclink/soclink/internal/tenants"
	"github.com/soclink/soclink/internal/users"
)

type Handler struct {
	repo      *db.Repository
	auth      *auth.Service
	incidents *incidents.Service
	sources   *sources.Service
	sla       *sla.Aggregator
	tenants   *tenants.Service
	users     *users.Service
	dashboard *dashboard.Service
	logger    *zap.Logger
}

type Deps struct {
	Repo      *db.Repository
	Auth      *auth.Service
	Incidents *incidents.Service
	Sources   *sources.Service
	SLA       *sla.Aggregator
	Tenants   *tenants.Service
	Users     *users.Service
	Dashboard *dashboard.Service
	Logger    *zap.Logger
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		repo:      deps.Repo,
		auth:      deps.Auth,
		incidents: deps.Incidents,
		sources:   deps.Sources,
		sla:       deps.SLA,
		tenants:   deps.Tenants,
		users:     deps.Users,
		dashboard: deps.Dashboard,
		logger:    deps.Logger,
	}
}
