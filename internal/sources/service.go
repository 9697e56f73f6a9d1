// Package sources manages the per-tenant log source inventory and the
// freshness-based health reconciliation driven by the scheduler.
package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/access"
	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/metrics"
)

// Health thresholds on log freshness. Derived status is a pure function
// of last event age at evaluation time.
const (
	ActiveWindow   = 30 * time.Minute
	DegradedWindow = 120 * time.Minute
)

type Store interface {
	GetSource(ctx context.Context, id uuid.UUID) (*core.LogSource, error)
	ListSources(ctx context.Context, tenantID uuid.UUID) ([]core.LogSource, error)
	FindSourceByHost(ctx context.Context, tenantID uuid.UUID, host string) (*core.LogSource, error)
	CreateSource(ctx context.Context, src *core.LogSource) error
	UpdateSource(ctx context.Context, src *core.LogSource) error
	UpdateSourceHealth(ctx context.Context, id uuid.UUID, status core.SourceStatus, lastEventAt *time.Time) error
	UpdateSourceEPS(ctx context.Context, id uuid.UUID, eps float64) error
	SourceStats(ctx context.Context, tenantID uuid.UUID) (*core.SourceStats, error)
}

type Service struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Collector
}

func NewService(store Store, logger *zap.Logger, collector *metrics.Collector) *Service {
	return &Service{store: store, logger: logger, metrics: collector}
}

// StatusFor derives the health status from the last event timestamp.
func StatusFor(lastEventAt *time.Time, now time.Time) core.SourceStatus {
	if lastEventAt == nil {
		return core.SourceNoLogs
	}
	age := now.Sub(*lastEventAt)
	switch {
	case age <= ActiveWindow:
		return core.SourceActive
	case age <= DegradedWindow:
		return core.SourceDegraded
	default:
		return core.SourceNoLogs
	}
}

// Reconcile folds one observation cycle into the tenant's inventory.
// observed maps source host to the latest event timestamp seen upstream
// this cycle (absent host means no events were seen). A source keeps its
// previous last_event_at when the cycle saw nothing newer, so status
// still degrades over time without ever moving the timestamp backwards.
// Returns the number of sources whose status actually changed.
func (s *Service) Reconcile(ctx context.Context, tenantID uuid.UUID, observed map[string]*time.Time, now time.Time) (int, error) {
	inventory, err := s.store.ListSources(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("list sources: %w", err)
	}

	changed := 0
	for i := range inventory {
		src := &inventory[i]
		if !src.IsActive {
			continue
		}

		lastEvent := src.LastEventAt
		if seen, ok := observed[src.Host]; ok && seen != nil {
			if lastEvent == nil || seen.After(*lastEvent) {
				lastEvent = seen
			}
		}

		status := StatusFor(lastEvent, now)
		if status == src.Status && equalTimes(lastEvent, src.LastEventAt) {
			continue
		}

		if err := s.store.UpdateSourceHealth(ctx, src.ID, status, lastEvent); err != nil {
			return changed, fmt.Errorf("update source %s: %w", src.Host, err)
		}
		if status != src.Status {
			changed++
			s.logger.Info("log source status changed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("host", src.Host),
				zap.String("old_status", string(src.Status)),
				zap.String("new_status", string(status)),
			)
		}
	}

	if changed > 0 {
		s.metrics.RecordSourceUpdates(changed)
	}
	return changed, nil
}

// UpdateEPS stores the per-source events-per-second rates from one
// measurement cycle.
func (s *Service) UpdateEPS(ctx context.Context, tenantID uuid.UUID, rates map[string]float64) error {
	inventory, err := s.store.ListSources(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}
	for i := range inventory {
		src := &inventory[i]
		eps, ok := rates[src.Host]
		if !ok {
			continue
		}
		if err := s.store.UpdateSourceEPS(ctx, src.ID, eps); err != nil {
			return fmt.Errorf("update eps for %s: %w", src.Host, err)
		}
	}
	return nil
}

type CreateSourceInput struct {
	TenantID   uuid.UUID
	Name       string
	SourceType string
	Host       string
	Vendor     *string
	Product    *string
	GroupName  *string
}

// Create registers a log source. Host must be unique within the tenant.
func (s *Service) Create(ctx context.Context, actor core.Actor, in CreateSourceInput) (*core.LogSource, error) {
	if err := access.RequireManageTenants(actor); err != nil {
		return nil, err
	}
	if in.Name == "" || in.Host == "" {
		return nil, fmt.Errorf("name and host are required: %w", core.ErrValidation)
	}

	existing, err := s.store.FindSourceByHost(ctx, in.TenantID, in.Host)
	if err != nil {
		return nil, fmt.Errorf("check host uniqueness: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("source with host %q already exists for tenant: %w", in.Host, core.ErrConflict)
	}

	now := time.Now().UTC()
	src := &core.LogSource{
		ID:         uuid.New(),
		TenantID:   in.TenantID,
		Name:       in.Name,
		SourceType: in.SourceType,
		Host:       in.Host,
		Vendor:     in.Vendor,
		Product:    in.Product,
		GroupName:  in.GroupName,
		Status:     core.SourceUnknown,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateSource(ctx, src); err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return src, nil
}

// Deactivate soft-deletes a source. Its history stays queryable but it
// drops out of reconciliation and stats.
func (s *Service) Deactivate(ctx context.Context, actor core.Actor, id uuid.UUID) error {
	if err := access.RequireManageTenants(actor); err != nil {
		return err
	}
	src, err := s.store.GetSource(ctx, id)
	if err != nil {
		return err
	}
	if !src.IsActive {
		return nil
	}
	src.IsActive = false
	src.UpdatedAt = time.Now().UTC()
	return s.store.UpdateSource(ctx, src)
}

// List returns the tenant's sources, with client actors pinned to their
// home tenant.
func (s *Service) List(ctx context.Context, actor core.Actor, tenantID uuid.UUID) ([]core.LogSource, error) {
	if err := access.RequireRead(actor, tenantID); err != nil {
		return nil, err
	}
	return s.store.ListSources(ctx, tenantID)
}

// Stats returns the per-status counts for a tenant's active sources.
func (s *Service) Stats(ctx context.Context, actor core.Actor, tenantID uuid.UUID) (*core.SourceStats, error) {
	if err := access.RequireRead(actor, tenantID); err != nil {
		return nil, err
	}
	return s.store.SourceStats(ctx, tenantID)
}

func equalTimes(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
