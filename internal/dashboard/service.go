// Package dashboard assembles the landing-page rollups: incident counts,
// log source health and the latest SLA snapshot for one tenant, or
// globally for SOC staff.
package dashboard

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/soclink/soclink/internal/access"
	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/db"
)

type Store interface {
	IncidentCountsByStatus(ctx context.Context, tenantID *uuid.UUID) ([]db.StatusCount, error)
	OpenIncidentCountsByPriority(ctx context.Context, tenantID *uuid.UUID) ([]db.PriorityCount, error)
	SourceStats(ctx context.Context, tenantID uuid.UUID) (*core.SourceStats, error)
	LatestSnapshot(ctx context.Context, tenantID uuid.UUID) (*core.SlaSnapshot, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type Summary struct {
	IncidentsByStatus map[core.IncidentStatus]int `json:"incidents_by_status"`
	OpenByPriority    map[core.Priority]int       `json:"open_by_priority"`
	OpenTotal         int                         `json:"open_total"`
	SourceStats       *core.SourceStats           `json:"source_stats,omitempty"`
	LatestSLA         *core.SlaSnapshot           `json:"latest_sla,omitempty"`
}

// Summarize builds the dashboard for the requested tenant. A nil tenant
// asks for the SOC-wide view; clients are pinned to their own tenant.
func (s *Service) Summarize(ctx context.Context, actor core.Actor, requested *uuid.UUID) (*Summary, error) {
	tenantID, err := access.ScopeTenant(actor, requested)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.store.IncidentCountsByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.store.OpenIncidentCountsByPriority(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		IncidentsByStatus: make(map[core.IncidentStatus]int, len(byStatus)),
		OpenByPriority:    make(map[core.Priority]int, len(byPriority)),
	}
	for _, c := range byStatus {
		summary.IncidentsByStatus[c.Status] = c.Count
	}
	for _, c := range byPriority {
		summary.OpenByPriority[c.Priority] = c.Count
		summary.OpenTotal += c.Count
	}

	// Source health and SLA are per-tenant views; the global dashboard
	// shows incident counts only.
	if tenantID != nil {
		stats, err := s.store.SourceStats(ctx, *tenantID)
		if err != nil {
			return nil, err
		}
		summary.SourceStats = stats

		snap, err := s.store.LatestSnapshot(ctx, *tenantID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		summary.LatestSLA = snap
	}

	return summary, nil
}
