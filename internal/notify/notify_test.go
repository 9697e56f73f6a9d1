package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/metrics"
)

type fakeStore struct {
	pending []core.OutboxEvent
	sent    []uuid.UUID
	failed  []uuid.UUID
}

func (s *fakeStore) PendingOutbox(_ context.Context, limit int) ([]core.OutboxEvent, error) {
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *fakeStore) MarkOutboxSent(_ context.Context, event core.OutboxEvent) error {
	s.sent = append(s.sent, event.ID)
	return nil
}

func (s *fakeStore) MarkOutboxFailed(_ context.Context, event core.OutboxEvent) error {
	s.failed = append(s.failed, event.ID)
	return nil
}

type fakeSink struct {
	failFor map[uuid.UUID]bool
	seen    []uuid.UUID
}

func (s *fakeSink) Deliver(_ context.Context, event *core.OutboxEvent) error {
	s.seen = append(s.seen, event.ID)
	if s.failFor[event.ID] {
		return errors.New("delivery refused")
	}
	return nil
}

func event(t string) core.OutboxEvent {
	return core.OutboxEvent{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Type:     t,
		Status:   core.OutboxPending,
	}
}

func newDrainer(store Store, sink Sink) *Drainer {
	collector := metrics.NewCollector(prometheus.NewRegistry())
	return NewDrainer(store, sink, zap.NewNop(), collector)
}

func TestDrainDeliversPendingBatch(t *testing.T) {
	store := &fakeStore{pending: []core.OutboxEvent{event("incident.published"), event("incident.status_changed")}}
	sink := &fakeSink{}

	n, err := newDrainer(store, sink).Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n != 2 {
		t.Fatalf("delivered = %d, want 2", n)
	}
	if len(store.sent) != 2 || len(store.failed) != 0 {
		t.Errorf("sent=%d failed=%d, want 2/0", len(store.sent), len(store.failed))
	}
}

func TestDrainFailureDoesNotBlockBatch(t *testing.T) {
	bad := event("incident.published")
	good := event("incident.comment_added")
	store := &fakeStore{pending: []core.OutboxEvent{bad, good}}
	sink := &fakeSink{failFor: map[uuid.UUID]bool{bad.ID: true}}

	n, err := newDrainer(store, sink).Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n != 1 {
		t.Fatalf("delivered = %d, want 1", n)
	}
	if len(store.failed) != 1 || store.failed[0] != bad.ID {
		t.Errorf("failed = %v, want [%s]", store.failed, bad.ID)
	}
	if len(store.sent) != 1 || store.sent[0] != good.ID {
		t.Errorf("sent = %v, want [%s]", store.sent, good.ID)
	}
}

func TestDrainEmptyOutboxIsNoop(t *testing.T) {
	store := &fakeStore{}
	sink := &fakeSink{}

	n, err := newDrainer(store, sink).Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n != 0 || len(sink.seen) != 0 {
		t.Errorf("delivered=%d seen=%d, want 0/0", n, len(sink.seen))
	}
}
