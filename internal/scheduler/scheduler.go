// Package scheduler enqueues recurring background jobs and runs the
// worker pool that executes them. Jobs flow through the Redis queue so
// scheduler and workers can scale as separate processes.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/config"
	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/queue"
)

type TenantLister interface {
	ListTenants(ctx context.Context, activeOnly bool) ([]core.Tenant, error)
}

type Scheduler struct {
	tenants TenantLister
	queue   *queue.RedisQueue
	logger  *zap.Logger
	config  *config.Config
}

func NewScheduler(tenants TenantLister, q *queue.RedisQueue, logger *zap.Logger, cfg *config.Config) *Scheduler {
	return &Scheduler{
		tenants: tenants,
		queue:   q,
		logger:  logger,
		config:  cfg,
	}
}

// Start runs the enqueue loops until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting scheduler",
		zap.Duration("source_sync_every", s.config.Scheduler.SourceSyncEvery),
		zap.Duration("sla_snapshot_every", s.config.Scheduler.SlaSnapshotAt),
		zap.Duration("outbox_drain_every", s.config.Scheduler.OutboxDrainAt),
	)

	sourceSync := time.NewTicker(s.config.Scheduler.SourceSyncEvery)
	slaSnapshot := time.NewTicker(s.config.Scheduler.SlaSnapshotAt)
	outboxDrain := time.NewTicker(s.config.Scheduler.OutboxDrainAt)
	defer sourceSync.Stop()
	defer slaSnapshot.Stop()
	defer outboxDrain.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping scheduler")
			return
		case <-sourceSync.C:
			s.enqueuePerTenant(ctx, queue.JobSourceSync)
		case <-slaSnapshot.C:
			s.enqueuePerTenant(ctx, queue.JobSlaSnapshot)
		case <-outboxDrain.C:
			s.enqueue(ctx, &queue.Job{
				ID:        uuid.New().String(),
				Type:      queue.JobOutboxDrain,
				CreatedAt: time.Now().UTC(),
			})
		}
	}
}

func (s *Scheduler) enqueuePerTenant(ctx context.Context, jobType string) {
	tenants, err := s.tenants.ListTenants(ctx, true)
	if err != nil {
		s.logger.Error("Failed to list tenants for scheduling", zap.Error(err))
		return
	}
	for _, tenant := range tenants {
		s.enqueue(ctx, &queue.Job{
			ID:        uuid.New().String(),
			Type:      jobType,
			TenantID:  tenant.ID.String(),
			CreatedAt: time.Now().UTC(),
		})
	}
}

func (s *Scheduler) enqueue(ctx context.Context, job *queue.Job) {
	if err := s.queue.Push(ctx, job); err != nil {
		s.logger.Error("Failed to enqueue job",
			zap.String("type", job.Type),
			zap.String("tenant_id", job.TenantID),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("Scheduled job",
		zap.String("type", job.Type),
		zap.String("tenant_id", job.TenantID),
	)
}
