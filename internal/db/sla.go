package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/soclink/soclink/internal/core"
)

func (r *Repository) FinishedIncidents(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]core.PublishedIncident, error) {
	incidents := []core.PublishedIncident{}
	err := r.db.SelectContext(ctx, &incidents, `
        SELECT * FROM incidents
        WHERE tenant_id = $1
          AND status IN ('resolved', 'closed')
          AND published_at >= $2 AND published_at < $3
        ORDER BY published_at ASC`, tenantID, from, to)
	return incidents, err
}

func (r *Repository) FirstInProgressAt(ctx context.Context, incidentID uuid.UUID) (*time.Time, error) {
	var at time.Time
	err := r.db.GetContext(ctx, &at, `
        SELECT created_at FROM incident_status_history
        WHERE incident_id = $1 AND new_status = 'in_progress'
        ORDER BY created_at ASC
        LIMIT 1`, incidentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (r *Repository) InsertSnapshot(ctx context.Context, snap *core.SlaSnapshot) error {
	query := `
        INSERT INTO sla_snapshots (
            id, tenant_id, period_start, period_end,
            mtta_minutes, mttr_minutes, compliance_pct,
            incidents_total, incidents_by_priority, created_at
        ) VALUES (
            :id, :tenant_id, :period_start, :period_end,
            :mtta_minutes, :mttr_minutes, :compliance_pct,
            :incidents_total, :incidents_by_priority, :created_at
        )`
	_, err := r.db.NamedExecContext(ctx, query, snap)
	return err
}

func (r *Repository) LatestSnapshot(ctx context.Context, tenantID uuid.UUID) (*core.SlaSnapshot, error) {
	var snap core.SlaSnapshot
	err := r.db.GetContext(ctx, &snap, `
        SELECT * FROM sla_snapshots
        WHERE tenant_id = $1
        ORDER BY created_at DESC
        LIMIT 1`, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *Repository) ListSnapshots(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]core.SlaSnapshot, error) {
	snapshots := []core.SlaSnapshot{}
	err := r.db.SelectContext(ctx, &snapshots, `
        SELECT * FROM sla_snapshots
        WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
        ORDER BY created_at ASC`, tenantID, from, to)
	return snapshots, err
}
