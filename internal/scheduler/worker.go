package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/config"
	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/notify"
	"github.com/soclink/soclink/internal/queue"
	"github.com/soclink/soclink/internal/siem"
	"github.com/soclink/soclink/internal/sla"
	"github.com/soclink/soclink/internal/sources"
)

type WorkerStore interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*core.Tenant, error)
	ListSources(ctx context.Context, tenantID uuid.UUID) ([]core.LogSource, error)
}

// Pool pops jobs off the shared queue and dispatches them to runners.
type Pool struct {
	store   WorkerStore
	queue   *queue.RedisQueue
	siem    *siem.Client
	sources *sources.Service
	sla     *sla.Aggregator
	drainer *notify.Drainer
	logger  *zap.Logger
	config  *config.Config
	wg      sync.WaitGroup
}

func NewPool(store WorkerStore, q *queue.RedisQueue, siemClient *siem.Client, sourcesSvc *sources.Service, aggregator *sla.Aggregator, drainer *notify.Drainer, logger *zap.Logger, cfg *config.Config) *Pool {
	return &Pool{
		store:   store,
		queue:   q,
		siem:    siemClient,
		sources: sourcesSvc,
		sla:     aggregator,
		drainer: drainer,
		logger:  logger,
		config:  cfg,
	}
}

func (p *Pool) Start(ctx context.Context) {
	count := p.config.Scheduler.WorkerCount
	p.logger.Info("Starting worker pool", zap.Int("worker_count", count))

	for i := 0; i < count; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	logger := p.logger.With(zap.Int("worker_id", id))
	logger.Info("Worker started")

	for {
		if ctx.Err() != nil {
			logger.Info("Worker stopped")
			return
		}

		job, err := p.queue.Pop(ctx, 5*time.Second)
		if err != nil {
			if errors.Is(err, queue.ErrTimeout) || ctx.Err() != nil {
				continue
			}
			logger.Error("Failed to pop job", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		start := time.Now()
		if err := p.process(ctx, job); err != nil {
			logger.Error("Job failed",
				zap.String("type", job.Type),
				zap.String("tenant_id", job.TenantID),
				zap.Error(err),
			)
			continue
		}
		logger.Debug("Job done",
			zap.String("type", job.Type),
			zap.String("tenant_id", job.TenantID),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (p *Pool) process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobSourceSync:
		return p.runSourceSync(ctx, job)
	case queue.JobSlaSnapshot:
		return p.runSlaSnapshot(ctx, job)
	case queue.JobOutboxDrain:
		_, err := p.drainer.Drain(ctx)
		return err
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

// EPS is sampled over a short window; a full page means the sample is
// truncated and the previous rate is kept.
const (
	epsSampleInterval = 5 * time.Minute
	epsSampleLimit    = 1000
)

// runSourceSync asks the SIEM for the latest event per monitored host
// and folds the observations into the tenant's source inventory.
func (p *Pool) runSourceSync(ctx context.Context, job *queue.Job) error {
	tenantID, err := uuid.Parse(job.TenantID)
	if err != nil {
		return fmt.Errorf("bad tenant id %q: %w", job.TenantID, err)
	}

	inventory, err := p.store.ListSources(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	observed := make(map[string]*time.Time, len(inventory))
	rates := make(map[string]float64, len(inventory))

	for i := range inventory {
		src := &inventory[i]
		if !src.IsActive {
			continue
		}
		query := fmt.Sprintf("event_src.host = %q", src.Host)

		// Newest event only; the result is ordered newest first.
		res, err := p.siem.SearchEvents(ctx, query, "24h", 1)
		if err != nil {
			// One unreachable host must not starve the rest of the sync.
			p.logger.Warn("source event search failed",
				zap.String("host", src.Host),
				zap.Error(err),
			)
			continue
		}
		observed[src.Host] = siem.LastEventTime(res)

		sample, err := p.siem.SearchEvents(ctx, query, "5m", epsSampleLimit)
		if err != nil {
			p.logger.Warn("source rate sample failed",
				zap.String("host", src.Host),
				zap.Error(err),
			)
			continue
		}
		if len(sample.Data) < epsSampleLimit {
			rates[src.Host] = float64(len(sample.Data)) / epsSampleInterval.Seconds()
		}
	}

	if _, err := p.sources.Reconcile(ctx, tenantID, observed, time.Now().UTC()); err != nil {
		return err
	}
	return p.sources.UpdateEPS(ctx, tenantID, rates)
}

// runSlaSnapshot computes the trailing-window rollup for one tenant.
func (p *Pool) runSlaSnapshot(ctx context.Context, job *queue.Job) error {
	tenantID, err := uuid.Parse(job.TenantID)
	if err != nil {
		return fmt.Errorf("bad tenant id %q: %w", job.TenantID, err)
	}

	tenant, err := p.store.GetTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -p.config.Scheduler.SlaWindowDays)
	_, err = p.sla.ComputeSnapshot(ctx, tenant, from, to)
	return err
}
