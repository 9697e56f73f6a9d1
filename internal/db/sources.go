package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/soclink/soclink/internal/core"
)

func (r *Repository) CreateSource(ctx context.Context, src *core.LogSource) error {
	query := `
        INSERT INTO log_sources (
            id, tenant_id, name, source_type, host, vendor, product, group_name,
            status, last_event_at, eps, is_active, created_at, updated_at
        ) VALUES (
            :id, :tenant_id, :name, :source_type, :host, :vendor, :product, :group_name,
            :status, :last_event_at, :eps, :is_active, :created_at, :updated_at
        )`
	_, err := r.db.NamedExecContext(ctx, query, src)
	return err
}

func (r *Repository) GetSource(ctx context.Context, id uuid.UUID) (*core.LogSource, error) {
	var src core.LogSource
	err := r.db.GetContext(ctx, &src, `SELECT * FROM log_sources WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}

func (r *Repository) FindSourceByHost(ctx context.Context, tenantID uuid.UUID, host string) (*core.LogSource, error) {
	var src core.LogSource
	err := r.db.GetContext(ctx, &src,
		`SELECT * FROM log_sources WHERE tenant_id = $1 AND host = $2 AND is_active = true`,
		tenantID, host)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}

func (r *Repository) ListSources(ctx context.Context, tenantID uuid.UUID) ([]core.LogSource, error) {
	sources := []core.LogSource{}
	err := r.db.SelectContext(ctx, &sources,
		`SELECT * FROM log_sources WHERE tenant_id = $1 ORDER BY name ASC`, tenantID)
	return sources, err
}

func (r *Repository) UpdateSource(ctx context.Context, src *core.LogSource) error {
	query := `
        UPDATE log_sources SET
            name = :name,
            source_type = :source_type,
            vendor = :vendor,
            product = :product,
            group_name = :group_name,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id AND tenant_id = :tenant_id`
	_, err := r.db.NamedExecContext(ctx, query, src)
	return err
}

func (r *Repository) UpdateSourceHealth(ctx context.Context, id uuid.UUID, status core.SourceStatus, lastEventAt *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE log_sources SET status = $2, last_event_at = $3, updated_at = NOW()
        WHERE id = $1`, id, status, lastEventAt)
	return err
}

func (r *Repository) UpdateSourceEPS(ctx context.Context, id uuid.UUID, eps float64) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE log_sources SET eps = $2, updated_at = NOW()
        WHERE id = $1`, id, eps)
	return err
}

func (r *Repository) SourceStats(ctx context.Context, tenantID uuid.UUID) (*core.SourceStats, error) {
	var stats core.SourceStats
	err := r.db.GetContext(ctx, &stats, `
        SELECT
            COUNT(*) AS total,
            COUNT(*) FILTER (WHERE status = 'active') AS active,
            COUNT(*) FILTER (WHERE status = 'degraded') AS degraded,
            COUNT(*) FILTER (WHERE status = 'no_logs') AS no_logs,
            COUNT(*) FILTER (WHERE status = 'error') AS error,
            COUNT(*) FILTER (WHERE status = 'unknown') AS unknown
        FROM log_sources
        WHERE tenant_id = $1 AND is_active = true`, tenantID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
