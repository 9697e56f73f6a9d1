// Package notify drains the transactional outbox and hands events to a
// delivery sink.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/metrics"
)

// Sink delivers one outbox event to an external channel. Implementations
// must be safe for concurrent use.
type Sink interface {
	Deliver(ctx context.Context, event *core.OutboxEvent) error
}

// LogSink is the default sink: it writes deliveries to the structured
// log. Real channels (SMTP, webhooks) plug in behind the same interface.
type LogSink struct {
	Logger *zap.Logger
}

func (s *LogSink) Deliver(_ context.Context, event *core.OutboxEvent) error {
	s.Logger.Info("outbox event delivered",
		zap.String("event_id", event.ID.String()),
		zap.String("tenant_id", event.TenantID.String()),
		zap.String("type", event.Type),
	)
	return nil
}

type Store interface {
	PendingOutbox(ctx context.Context, limit int) ([]core.OutboxEvent, error)
	MarkOutboxSent(ctx context.Context, event core.OutboxEvent) error
	MarkOutboxFailed(ctx context.Context, event core.OutboxEvent) error
}

// Drainer pulls pending outbox events and pushes them through the sink.
// A failed delivery is marked and retried on a later cycle; it never
// blocks the rest of the batch.
type Drainer struct {
	store     Store
	sink      Sink
	logger    *zap.Logger
	metrics   *metrics.Collector
	batchSize int
}

func NewDrainer(store Store, sink Sink, logger *zap.Logger, collector *metrics.Collector) *Drainer {
	return &Drainer{
		store:     store,
		sink:      sink,
		logger:    logger,
		metrics:   collector,
		batchSize: 100,
	}
}

// Drain processes one batch. Returns how many events were delivered.
func (d *Drainer) Drain(ctx context.Context) (int, error) {
	events, err := d.store.PendingOutbox(ctx, d.batchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for i := range events {
		event := events[i]
		if err := ctx.Err(); err != nil {
			return delivered, err
		}

		deliverCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := d.sink.Deliver(deliverCtx, &event)
		cancel()

		if err != nil {
			d.logger.Warn("outbox delivery failed",
				zap.String("event_id", event.ID.String()),
				zap.String("type", event.Type),
				zap.Int("attempts", event.Attempts+1),
				zap.Error(err),
			)
			if markErr := d.store.MarkOutboxFailed(ctx, event); markErr != nil {
				d.logger.Error("failed to mark outbox event", zap.Error(markErr))
			}
			d.metrics.RecordOutbox(false)
			continue
		}

		if err := d.store.MarkOutboxSent(ctx, event); err != nil {
			d.logger.Error("failed to mark outbox event sent", zap.Error(err))
			continue
		}
		d.metrics.RecordOutbox(true)
		delivered++
	}
	return delivered, nil
}
