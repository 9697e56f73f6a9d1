package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/soclink/soclink/internal/core"
)

func insertNotification(ctx context.Context, tx *sqlx.Tx, n *core.Notification) error {
	query := `
        INSERT INTO notifications (id, tenant_id, user_id, type, title, message, is_read, extra_data, created_at)
        VALUES (:id, :tenant_id, :user_id, :type, :title, :message, :is_read, :extra_data, :created_at)`
	_, err := tx.NamedExecContext(ctx, query, n)
	return err
}

func insertOutbox(ctx context.Context, tx *sqlx.Tx, e *core.OutboxEvent) error {
	query := `
        INSERT INTO outbox_events (id, tenant_id, type, payload, status, attempts, created_at)
        VALUES (:id, :tenant_id, :type, :payload, :status, :attempts, :created_at)`
	_, err := tx.NamedExecContext(ctx, query, e)
	return err
}

func (r *Repository) ListNotifications(ctx context.Context, tenantID uuid.UUID, unreadOnly bool, limit int) ([]core.Notification, error) {
	notifications := []core.Notification{}
	query := `
        SELECT * FROM notifications
        WHERE tenant_id = $1
        ORDER BY created_at DESC
        LIMIT $2`
	if unreadOnly {
		query = `
        SELECT * FROM notifications
        WHERE tenant_id = $1 AND is_read = false
        ORDER BY created_at DESC
        LIMIT $2`
	}
	err := r.db.SelectContext(ctx, &notifications, query, tenantID, limit)
	return notifications, err
}

func (r *Repository) MarkNotificationRead(ctx context.Context, tenantID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) MarkAllNotificationsRead(ctx context.Context, tenantID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE tenant_id = $1 AND is_read = false`, tenantID)
	return err
}

func (r *Repository) PendingOutbox(ctx context.Context, limit int) ([]core.OutboxEvent, error) {
	events := []core.OutboxEvent{}
	err := r.db.SelectContext(ctx, &events, `
        SELECT * FROM outbox_events
        WHERE status IN ('pending', 'failed') AND attempts < 5
        ORDER BY created_at ASC
        LIMIT $1`, limit)
	return events, err
}

func (r *Repository) MarkOutboxSent(ctx context.Context, event core.OutboxEvent) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE outbox_events
        SET status = 'sent', attempts = attempts + 1, sent_at = $2
        WHERE id = $1`, event.ID, time.Now().UTC())
	return err
}

func (r *Repository) MarkOutboxFailed(ctx context.Context, event core.OutboxEvent) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE outbox_events
        SET status = 'failed', attempts = attempts + 1
        WHERE id = $1`, event.ID)
	return err
}
