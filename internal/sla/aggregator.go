// Package sla computes per-tenant response and resolution rollups from
// incident lifecycle history.
package sla

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/metrics"
)

type Store interface {
	// FinishedIncidents returns incidents published within the window
	// whose current status is resolved or closed, oldest first.
	FinishedIncidents(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]core.PublishedIncident, error)
	// FirstInProgressAt returns the timestamp of the incident's first
	// transition into in_progress, or nil if it never happened.
	FirstInProgressAt(ctx context.Context, incidentID uuid.UUID) (*time.Time, error)
	InsertSnapshot(ctx context.Context, snap *core.SlaSnapshot) error
	LatestSnapshot(ctx context.Context, tenantID uuid.UUID) (*core.SlaSnapshot, error)
	ListSnapshots(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]core.SlaSnapshot, error)
}

type Aggregator struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Collector
}

func NewAggregator(store Store, logger *zap.Logger, collector *metrics.Collector) *Aggregator {
	return &Aggregator{store: store, logger: logger, metrics: collector}
}

// ComputeSnapshot builds and persists one immutable rollup for the tenant
// over [from, to). MTTA averages the delay from publish to the first
// in_progress transition; incidents never acknowledged that way are
// excluded from MTTA but still counted. MTTR averages publish-to-close.
// Compliance is the share of closed incidents whose resolution met the
// tenant's per-priority target. All three are nil when no incident
// contributes, which is not the same as zero.
func (a *Aggregator) ComputeSnapshot(ctx context.Context, tenant *core.Tenant, from, to time.Time) (*core.SlaSnapshot, error) {
	incidents, err := a.store.FinishedIncidents(ctx, tenant.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load finished incidents: %w", err)
	}

	targets := tenant.MTTRTargets()
	byPriority := map[string]int{}

	var (
		ackSum, ackN     float64
		resSum, resN     float64
		compliant, total float64
	)

	for i := range incidents {
		inc := &incidents[i]
		byPriority[string(inc.Priority)]++

		ackAt, err := a.store.FirstInProgressAt(ctx, inc.ID)
		if err != nil {
			return nil, fmt.Errorf("ack time for %s: %w", inc.ID, err)
		}
		if ackAt != nil {
			ackSum += ackAt.Sub(inc.PublishedAt).Minutes()
			ackN++
		}

		if inc.ClosedAt == nil {
			continue
		}
		resolution := inc.ClosedAt.Sub(inc.PublishedAt).Minutes()
		resSum += resolution
		resN++
		total++
		if resolution <= targets[inc.Priority] {
			compliant++
		}
	}

	snap := &core.SlaSnapshot{
		ID:             uuid.New(),
		TenantID:       tenant.ID,
		PeriodStart:    from,
		PeriodEnd:      to,
		IncidentsTotal: len(incidents),
		CreatedAt:      time.Now().UTC(),
	}

	counts := core.JSONB{}
	for p, n := range byPriority {
		counts[p] = n
	}
	snap.IncidentsByPriority = counts

	if ackN > 0 {
		v := ackSum / ackN
		snap.MTTAMinutes = &v
	}
	if resN > 0 {
		v := resSum / resN
		snap.MTTRMinutes = &v
	}
	if total > 0 {
		v := compliant / total * 100
		snap.CompliancePct = &v
	}

	if err := a.store.InsertSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	a.metrics.RecordSnapshot()
	a.logger.Info("sla snapshot computed",
		zap.String("tenant_id", tenant.ID.String()),
		zap.Int("incidents", snap.IncidentsTotal),
		zap.Time("period_start", from),
		zap.Time("period_end", to),
	)
	return snap, nil
}

// Latest returns the most recent snapshot for a tenant.
func (a *Aggregator) Latest(ctx context.Context, tenantID uuid.UUID) (*core.SlaSnapshot, error) {
	return a.store.LatestSnapshot(ctx, tenantID)
}

// History returns snapshots in a time range, for trend charts.
func (a *Aggregator) History(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]core.SlaSnapshot, error) {
	return a.store.ListSnapshots(ctx, tenantID, from, to)
}
