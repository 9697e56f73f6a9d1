package sla

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/metrics"
)

type fakeStore struct {
	incidents []core.PublishedIncident
	ackTimes  map[uuid.UUID]*time.Time
	inserted  []*core.SlaSnapshot
}

func (f *fakeStore) FinishedIncidents(_ context.Context, tenantID uuid.UUID, from, to time.Time) ([]core.PublishedIncident, error) {
	var out []core.PublishedIncident
	for _, inc := range f.incidents {
		if inc.TenantID != tenantID {
			continue
		}
		if inc.PublishedAt.Before(from) || !inc.PublishedAt.Before(to) {
			continue
		}
		out = append(out, inc)
	}
	return out, nil
}

func (f *fakeStore) FirstInProgressAt(_ context.Context, incidentID uuid.UUID) (*time.Time, error) {
	return f.ackTimes[incidentID], nil
}

func (f *fakeStore) InsertSnapshot(_ context.Context, snap *core.SlaSnapshot) error {
	f.inserted = append(f.inserted, snap)
	return nil
}

func (f *fakeStore) LatestSnapshot(_ context.Context, _ uuid.UUID) (*core.SlaSnapshot, error) {
	if len(f.inserted) == 0 {
		return nil, core.ErrNotFound
	}
	return f.inserted[len(f.inserted)-1], nil
}

func (f *fakeStore) ListSnapshots(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]core.SlaSnapshot, error) {
	var out []core.SlaSnapshot
	for _, s := range f.inserted {
		out = append(out, *s)
	}
	return out, nil
}

func newTestAggregator(store *fakeStore) *Aggregator {
	return NewAggregator(store, zap.NewNop(), metrics.NewCollector(prometheus.NewRegistry()))
}

func testTenant() *core.Tenant {
	return &core.Tenant{ID: uuid.New(), Name: "Acme", ShortName: "acme", IsActive: true}
}

func closedIncident(tenantID uuid.UUID, priority core.Priority, published time.Time, closedAfter time.Duration) core.PublishedIncident {
	closed := published.Add(closedAfter)
	return core.PublishedIncident{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Priority:    priority,
		Status:      core.StatusClosed,
		PublishedAt: published,
		ClosedAt:    &closed,
	}
}

func TestComputeSnapshotTimings(t *testing.T) {
	tenant := testTenant()
	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	inc := closedIncident(tenant.ID, core.PriorityHigh, t0, 300*time.Minute)
	ack := t0.Add(15 * time.Minute)

	store := &fakeStore{
		incidents: []core.PublishedIncident{inc},
		ackTimes:  map[uuid.UUID]*time.Time{inc.ID: &ack},
	}
	agg := newTestAggregator(store)

	snap, err := agg.ComputeSnapshot(context.Background(), tenant, t0.Add(-time.Hour), t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if snap.MTTAMinutes == nil || *snap.MTTAMinutes != 15 {
		t.Errorf("mtta = %v, want 15", snap.MTTAMinutes)
	}
	if snap.MTTRMinutes == nil || *snap.MTTRMinutes != 300 {
		t.Errorf("mttr = %v, want 300", snap.MTTRMinutes)
	}
	// 300 minutes is inside the default high target of 1440.
	if snap.CompliancePct == nil || *snap.CompliancePct != 100 {
		t.Errorf("compliance = %v, want 100", snap.CompliancePct)
	}
	if snap.IncidentsTotal != 1 {
		t.Errorf("total = %d, want 1", snap.IncidentsTotal)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("snapshot not persisted")
	}
}

func TestComputeSnapshotNeverAckedExcludedFromMTTA(t *testing.T) {
	tenant := testTenant()
	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	acked := closedIncident(tenant.ID, core.PriorityHigh, t0, 100*time.Minute)
	silent := closedIncident(tenant.ID, core.PriorityHigh, t0, 200*time.Minute)
	ack := t0.Add(20 * time.Minute)

	store := &fakeStore{
		incidents: []core.PublishedIncident{acked, silent},
		ackTimes:  map[uuid.UUID]*time.Time{acked.ID: &ack},
	}
	agg := newTestAggregator(store)

	snap, err := agg.ComputeSnapshot(context.Background(), tenant, t0, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	// Only the acknowledged incident contributes to MTTA.
	if snap.MTTAMinutes == nil || *snap.MTTAMinutes != 20 {
		t.Errorf("mtta = %v, want 20", snap.MTTAMinutes)
	}
	// Both contribute to MTTR.
	if snap.MTTRMinutes == nil || *snap.MTTRMinutes != 150 {
		t.Errorf("mttr = %v, want 150", snap.MTTRMinutes)
	}
	if snap.IncidentsTotal != 2 {
		t.Errorf("total = %d, want 2", snap.IncidentsTotal)
	}
}

func TestComputeSnapshotWindowSelectsByPublishTime(t *testing.T) {
	tenant := testTenant()
	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	// Published inside the window, closed well after it ends.
	inWindow := closedIncident(tenant.ID, core.PriorityHigh, from.AddDate(0, 0, 14), 40*24*time.Hour+300*time.Minute)
	// Published before the window, even though it was closed inside it.
	before := closedIncident(tenant.ID, core.PriorityHigh, from.AddDate(0, 0, -10), 12*24*time.Hour)
	// Published at the exclusive upper bound.
	atEnd := closedIncident(tenant.ID, core.PriorityHigh, to, time.Hour)

	store := &fakeStore{
		incidents: []core.PublishedIncident{inWindow, before, atEnd},
		ackTimes:  map[uuid.UUID]*time.Time{},
	}
	agg := newTestAggregator(store)

	snap, err := agg.ComputeSnapshot(context.Background(), tenant, from, to)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.IncidentsTotal != 1 {
		t.Fatalf("total = %d, want 1", snap.IncidentsTotal)
	}
	want := (40*24*time.Hour + 300*time.Minute).Minutes()
	if snap.MTTRMinutes == nil || *snap.MTTRMinutes != want {
		t.Errorf("mttr = %v, want %v", snap.MTTRMinutes, want)
	}
}

func TestComputeSnapshotEmptyWindowIsAllNil(t *testing.T) {
	tenant := testTenant()
	store := &fakeStore{ackTimes: map[uuid.UUID]*time.Time{}}
	agg := newTestAggregator(store)

	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	snap, err := agg.ComputeSnapshot(context.Background(), tenant, from, from.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.MTTAMinutes != nil || snap.MTTRMinutes != nil || snap.CompliancePct != nil {
		t.Errorf("empty window should produce nil metrics, got %v %v %v",
			snap.MTTAMinutes, snap.MTTRMinutes, snap.CompliancePct)
	}
	if snap.IncidentsTotal != 0 {
		t.Errorf("total = %d, want 0", snap.IncidentsTotal)
	}
	if len(store.inserted) != 1 {
		t.Error("empty snapshot should still be persisted")
	}
}

func TestComputeSnapshotCompliance(t *testing.T) {
	tenant := testTenant()
	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	// Critical target defaults to 240 minutes: one inside, one outside.
	fast := closedIncident(tenant.ID, core.PriorityCritical, t0, 60*time.Minute)
	slow := closedIncident(tenant.ID, core.PriorityCritical, t0, 500*time.Minute)

	store := &fakeStore{
		incidents: []core.PublishedIncident{fast, slow},
		ackTimes:  map[uuid.UUID]*time.Time{},
	}
	agg := newTestAggregator(store)

	snap, err := agg.ComputeSnapshot(context.Background(), tenant, t0, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.CompliancePct == nil || *snap.CompliancePct != 50 {
		t.Errorf("compliance = %v, want 50", snap.CompliancePct)
	}
	if snap.MTTAMinutes != nil {
		t.Errorf("no incident acknowledged, mtta should be nil, got %v", snap.MTTAMinutes)
	}
}

func TestComputeSnapshotHonorsCustomTargets(t *testing.T) {
	tenant := testTenant()
	tenant.SLAConfig = core.JSONB{
		"mttr_targets": map[string]interface{}{
			"critical": float64(30),
		},
	}
	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	// 60 minutes meets the default critical target but not the custom one.
	inc := closedIncident(tenant.ID, core.PriorityCritical, t0, 60*time.Minute)
	store := &fakeStore{
		incidents: []core.PublishedIncident{inc},
		ackTimes:  map[uuid.UUID]*time.Time{},
	}
	agg := newTestAggregator(store)

	snap, err := agg.ComputeSnapshot(context.Background(), tenant, t0, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.CompliancePct == nil || *snap.CompliancePct != 0 {
		t.Errorf("compliance = %v, want 0 under custom 30-minute target", snap.CompliancePct)
	}
}

func TestComputeSnapshotCountsByPriority(t *testing.T) {
	tenant := testTenant()
	t0 := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	store := &fakeStore{
		incidents: []core.PublishedIncident{
			closedIncident(tenant.ID, core.PriorityHigh, t0, time.Hour),
			closedIncident(tenant.ID, core.PriorityHigh, t0, time.Hour),
			closedIncident(tenant.ID, core.PriorityLow, t0, time.Hour),
		},
		ackTimes: map[uuid.UUID]*time.Time{},
	}
	agg := newTestAggregator(store)

	snap, err := agg.ComputeSnapshot(context.Background(), tenant, t0, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.IncidentsByPriority["high"] != 2 || snap.IncidentsByPriority["low"] != 1 {
		t.Errorf("by priority = %v", snap.IncidentsByPriority)
	}
}
