package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/soclink/soclink/internal/core"
)

type StatusCount struct {
	Status core.IncidentStatus `db:"status"`
	Count  int                 `db:"count"`
}

type PriorityCount struct {
	Priority core.Priority `db:"priority"`
	Count    int           `db:"count"`
}

func (r *Repository) IncidentCountsByStatus(ctx context.Context, tenantID *uuid.UUID) ([]StatusCount, error) {
	counts := []StatusCount{}
	if tenantID != nil {
		err := r.db.SelectContext(ctx, &counts, `
            SELECT status, COUNT(*) AS count FROM incidents
            WHERE tenant_id = $1
            GROUP BY status`, *tenantID)
		return counts, err
	}
	err := r.db.SelectContext(ctx, &counts, `
        SELECT status, COUNT(*) AS count FROM incidents
        GROUP BY status`)
	return counts, err
}

func (r *Repository) OpenIncidentCountsByPriority(ctx context.Context, tenantID *uuid.UUID) ([]PriorityCount, error) {
	counts := []PriorityCount{}
	if tenantID != nil {
		err := r.db.SelectContext(ctx, &counts, `
            SELECT priority, COUNT(*) AS count FROM incidents
            WHERE tenant_id = $1 AND status NOT IN ('closed', 'false_positive')
            GROUP BY priority`, *tenantID)
		return counts, err
	}
	err := r.db.SelectContext(ctx, &counts, `
        SELECT priority, COUNT(*) AS count FROM incidents
        WHERE status NOT IN ('closed', 'false_positive')
        GROUP BY priority`)
	return counts, err
}
