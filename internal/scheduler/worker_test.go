package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/config"
	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/metrics"
	"github.com/soclink/soclink/internal/queue"
	"github.com/soclink/soclink/internal/siem"
	"github.com/soclink/soclink/internal/sources"
)

type fakeWorkerStore struct {
	tenant    *core.Tenant
	inventory []core.LogSource
}

func (f *fakeWorkerStore) GetTenant(_ context.Context, id uuid.UUID) (*core.Tenant, error) {
	if f.tenant == nil || f.tenant.ID != id {
		return nil, core.ErrNotFound
	}
	return f.tenant, nil
}

func (f *fakeWorkerStore) ListSources(_ context.Context, tenantID uuid.UUID) ([]core.LogSource, error) {
	var out []core.LogSource
	for _, src := range f.inventory {
		if src.TenantID == tenantID {
			out = append(out, src)
		}
	}
	return out, nil
}

type fakeSourceStore struct {
	inventory []core.LogSource
	health    map[string]core.SourceStatus
	eps       map[uuid.UUID]float64
}

func (f *fakeSourceStore) GetSource(_ context.Context, id uuid.UUID) (*core.LogSource, error) {
	for i := range f.inventory {
		if f.inventory[i].ID == id {
			return &f.inventory[i], nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeSourceStore) ListSources(_ context.Context, tenantID uuid.UUID) ([]core.LogSource, error) {
	var out []core.LogSource
	for _, src := range f.inventory {
		if src.TenantID == tenantID {
			out = append(out, src)
		}
	}
	return out, nil
}

func (f *fakeSourceStore) FindSourceByHost(_ context.Context, tenantID uuid.UUID, host string) (*core.LogSource, error) {
	for i := range f.inventory {
		if f.inventory[i].TenantID == tenantID && f.inventory[i].Host == host {
			return &f.inventory[i], nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeSourceStore) CreateSource(_ context.Context, src *core.LogSource) error {
	f.inventory = append(f.inventory, *src)
	return nil
}

func (f *fakeSourceStore) UpdateSource(_ context.Context, src *core.LogSource) error {
	for i := range f.inventory {
		if f.inventory[i].ID == src.ID {
			f.inventory[i] = *src
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeSourceStore) UpdateSourceHealth(_ context.Context, id uuid.UUID, status core.SourceStatus, lastEventAt *time.Time) error {
	for i := range f.inventory {
		if f.inventory[i].ID == id {
			f.inventory[i].Status = status
			f.inventory[i].LastEventAt = lastEventAt
			f.health[f.inventory[i].Host] = status
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeSourceStore) UpdateSourceEPS(_ context.Context, id uuid.UUID, eps float64) error {
	f.eps[id] = eps
	return nil
}

func (f *fakeSourceStore) SourceStats(_ context.Context, _ uuid.UUID) (*core.SourceStats, error) {
	return &core.SourceStats{}, nil
}

// siemStub answers /events/find: a limit-1 probe gets the newest event,
// the rate sample gets sampleCounts[host] events (saturating at limit).
type siemStub struct {
	lastEvents   map[string]time.Time
	sampleCounts map[string]int
	probeLimits  []string
}

func (s *siemStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/events/find" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		query := r.URL.Query().Get("query")
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		var host string
		for h := range s.lastEvents {
			if strings.Contains(query, h) {
				host = h
			}
		}

		var data []map[string]interface{}
		if limit == 1 {
			s.probeLimits = append(s.probeLimits, r.URL.Query().Get("limit"))
			data = append(data, map[string]interface{}{
				"timestamp": s.lastEvents[host].Format(time.RFC3339),
			})
		} else {
			n := s.sampleCounts[host]
			if n > limit {
				n = limit
			}
			for i := 0; i < n; i++ {
				data = append(data, map[string]interface{}{
					"timestamp": s.lastEvents[host].Format(time.RFC3339),
				})
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}
}

func activeSource(tenantID uuid.UUID, host string) core.LogSource {
	return core.LogSource{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     host,
		Host:     host,
		Status:   core.SourceUnknown,
		IsActive: true,
	}
}

func TestRunSourceSyncProbesAndRates(t *testing.T) {
	tenant := &core.Tenant{ID: uuid.New(), Name: "Acme", ShortName: "acme", IsActive: true}
	quiet := activeSource(tenant.ID, "fw-01")
	noisy := activeSource(tenant.ID, "dc-01")
	retired := activeSource(tenant.ID, "old-01")
	retired.IsActive = false

	now := time.Now().UTC()
	stub := &siemStub{
		lastEvents: map[string]time.Time{
			"fw-01": now.Add(-10 * time.Minute),
			"dc-01": now.Add(-90 * time.Minute),
		},
		sampleCounts: map[string]int{
			"fw-01": 3,
			"dc-01": epsSampleLimit + 500,
		},
	}
	server := httptest.NewServer(stub.handler(t))
	defer server.Close()

	sourceStore := &fakeSourceStore{
		inventory: []core.LogSource{quiet, noisy, retired},
		health:    map[string]core.SourceStatus{},
		eps:       map[uuid.UUID]float64{},
	}
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	siemClient := siem.NewClient(siem.Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
	}, nil, zap.NewNop(), collector)
	sourceSvc := sources.NewService(sourceStore, zap.NewNop(), collector)

	pool := NewPool(
		&fakeWorkerStore{tenant: tenant, inventory: sourceStore.inventory},
		nil, siemClient, sourceSvc, nil, nil, zap.NewNop(), &config.Config{},
	)

	job := &queue.Job{ID: uuid.NewString(), Type: queue.JobSourceSync, TenantID: tenant.ID.String()}
	if err := pool.runSourceSync(context.Background(), job); err != nil {
		t.Fatalf("runSourceSync: %v", err)
	}

	// One limit-1 probe per active source, none for the retired one.
	if len(stub.probeLimits) != 2 {
		t.Errorf("probes = %d, want 2", len(stub.probeLimits))
	}

	if got := sourceStore.health["fw-01"]; got != core.SourceActive {
		t.Errorf("fw-01 status = %s, want active", got)
	}
	if got := sourceStore.health["dc-01"]; got != core.SourceDegraded {
		t.Errorf("dc-01 status = %s, want degraded", got)
	}
	if _, ok := sourceStore.health["old-01"]; ok {
		t.Error("inactive source should not be touched")
	}

	want := 3 / epsSampleInterval.Seconds()
	if got := sourceStore.eps[quiet.ID]; got != want {
		t.Errorf("fw-01 eps = %v, want %v", got, want)
	}
	// A saturated sample leaves the stored rate alone.
	if _, ok := sourceStore.eps[noisy.ID]; ok {
		t.Error("saturated sample must not overwrite eps")
	}
}

func TestRunSourceSyncRejectsBadTenantID(t *testing.T) {
	pool := NewPool(&fakeWorkerStore{}, nil, nil, nil, nil, nil, zap.NewNop(), &config.Config{})
	job := &queue.Job{Type: queue.JobSourceSync, TenantID: "not-a-uuid"}
	if err := pool.runSourceSync(context.Background(), job); err == nil {
		t.Fatal("expected error for malformed tenant id")
	}
}
