package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/soclink/soclink/internal/core"
)

const auditInsert = `
    INSERT INTO audit_logs (id, tenant_id, user_id, action, resource_type, resource_id, details, ip_address, created_at)
    VALUES (:id, :tenant_id, :user_id, :action, :resource_type, :resource_id, :details, :ip_address, :created_at)`

func insertAudit(ctx context.Context, tx *sqlx.Tx, a *core.AuditLog) error {
	_, err := tx.NamedExecContext(ctx, auditInsert, a)
	return err
}

func (r *Repository) InsertAudit(ctx context.Context, a *core.AuditLog) error {
	_, err := r.db.NamedExecContext(ctx, auditInsert, a)
	return err
}

func (r *Repository) ListAudit(ctx context.Context, tenantID *uuid.UUID, limit int) ([]core.AuditLog, error) {
	logs := []core.AuditLog{}
	if tenantID != nil {
		err := r.db.SelectContext(ctx, &logs, `
            SELECT * FROM audit_logs
            WHERE tenant_id = $1
            ORDER BY created_at DESC
            LIMIT $2`, *tenantID, limit)
		return logs, err
	}
	err := r.db.SelectContext(ctx, &logs, `
        SELECT * FROM audit_logs
        ORDER BY created_at DESC
        LIMIT $1`, limit)
	return logs, err
}
