package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/soclink/soclink/internal/core"
)

func (r *Repository) GetIncident(ctx context.Context, id uuid.UUID) (*core.PublishedIncident, error) {
	var inc core.PublishedIncident
	err := r.db.GetContext(ctx, &inc, `SELECT * FROM incidents WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

func (r *Repository) FindIncidentByExternal(ctx context.Context, tenantID uuid.UUID, externalID int64) (*core.PublishedIncident, error) {
	var inc core.PublishedIncident
	err := r.db.GetContext(ctx, &inc,
		`SELECT * FROM incidents WHERE tenant_id = $1 AND external_id = $2`,
		tenantID, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

// CreatePublished writes the publish bundle in one transaction. The
// unique (tenant_id, external_id) index backs up the service-level
// duplicate check under concurrency.
func (r *Repository) CreatePublished(ctx context.Context, bundle *core.PublishBundle) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO incidents (
            id, tenant_id, external_id, title, description, priority, priority_num,
            category, mitre_id, source_ips, source_hostnames, event_source_ips,
            event_count, symptoms, external_created_at, raw_data,
            recommendations, soc_actions, iocs, affected_assets, client_response,
            status, published_by, published_at, updated_at
        ) VALUES (
            :id, :tenant_id, :external_id, :title, :description, :priority, :priority_num,
            :category, :mitre_id, :source_ips, :source_hostnames, :event_source_ips,
            :event_count, :symptoms, :external_created_at, :raw_data,
            :recommendations, :soc_actions, :iocs, :affected_assets, :client_response,
            :status, :published_by, :published_at, :updated_at
        )`
	if _, err := tx.NamedExecContext(ctx, query, bundle.Incident); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return core.ErrConflict
		}
		return err
	}

	if err := insertStatusChange(ctx, tx, bundle.Genesis); err != nil {
		return err
	}
	if err := insertNotification(ctx, tx, bundle.Notification); err != nil {
		return err
	}
	if err := insertOutbox(ctx, tx, bundle.Outbox); err != nil {
		return err
	}
	if err := insertAudit(ctx, tx, bundle.Audit); err != nil {
		return err
	}

	return tx.Commit()
}

// MutateIncident loads the incident under FOR UPDATE, runs the callback,
// persists the mutated row plus whatever side-effect rows the callback
// returned, and commits. A callback error rolls everything back.
func (r *Repository) MutateIncident(ctx context.Context, id uuid.UUID, fn func(*core.PublishedIncident) (*core.IncidentMutation, error)) (*core.PublishedIncident, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var inc core.PublishedIncident
	err = tx.GetContext(ctx, &inc, `SELECT * FROM incidents WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	mutation, err := fn(&inc)
	if err != nil {
		return nil, err
	}

	update := `
        UPDATE incidents SET
            recommendations = :recommendations,
            soc_actions = :soc_actions,
            iocs = :iocs,
            affected_assets = :affected_assets,
            client_response = :client_response,
            status = :status,
            closed_by = :closed_by,
            closed_at = :closed_at,
            acknowledged_by = :acknowledged_by,
            acknowledged_at = :acknowledged_at,
            updated_at = :updated_at
        WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, update, &inc); err != nil {
		return nil, err
	}

	if mutation.Change != nil {
		if err := insertStatusChange(ctx, tx, mutation.Change); err != nil {
			return nil, err
		}
	}
	if mutation.Comment != nil {
		query := `
            INSERT INTO incident_comments (id, tenant_id, incident_id, user_id, text, is_soc, created_at)
            VALUES (:id, :tenant_id, :incident_id, :user_id, :text, :is_soc, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, mutation.Comment); err != nil {
			return nil, err
		}
	}
	if mutation.Notification != nil {
		if err := insertNotification(ctx, tx, mutation.Notification); err != nil {
			return nil, err
		}
	}
	if mutation.Outbox != nil {
		if err := insertOutbox(ctx, tx, mutation.Outbox); err != nil {
			return nil, err
		}
	}
	if mutation.Audit != nil {
		if err := insertAudit(ctx, tx, mutation.Audit); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &inc, nil
}

func (r *Repository) ListIncidents(ctx context.Context, filter core.IncidentFilter) ([]core.IncidentSummary, int, error) {
	conds := []string{"1=1"}
	args := []interface{}{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.TenantID != nil {
		add("i.tenant_id = $%d", *filter.TenantID)
	}
	if filter.Status != "" {
		add("i.status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		add("i.priority = $%d", filter.Priority)
	}
	if filter.From != nil {
		add("i.published_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("i.published_at < $%d", *filter.To)
	}

	where := strings.Join(conds, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM incidents i WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PerPage
	args = append(args, filter.PerPage, offset)
	query := fmt.Sprintf(`
        SELECT i.id, i.external_id, i.tenant_id, i.title, i.priority, i.status,
               i.category, i.published_at, i.updated_at,
               (SELECT COUNT(*) FROM incident_comments c WHERE c.incident_id = i.id) AS comments_count
        FROM incidents i
        WHERE %s
        ORDER BY i.priority_num ASC, i.published_at DESC
        LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	summaries := []core.IncidentSummary{}
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

func (r *Repository) GetIncidentDetail(ctx context.Context, id uuid.UUID) (*core.IncidentDetail, error) {
	inc, err := r.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &core.IncidentDetail{PublishedIncident: *inc}

	names := struct {
		PublishedByName    string  `db:"published_by_name"`
		ClosedByName       *string `db:"closed_by_name"`
		AcknowledgedByName *string `db:"acknowledged_by_name"`
	}{}
	err = r.db.GetContext(ctx, &names, `
        SELECT
            pu.name AS published_by_name,
            cu.name AS closed_by_name,
            au.name AS acknowledged_by_name
        FROM incidents i
        JOIN users pu ON pu.id = i.published_by
        LEFT JOIN users cu ON cu.id = i.closed_by
        LEFT JOIN users au ON au.id = i.acknowledged_by
        WHERE i.id = $1`, id)
	if err != nil {
		return nil, err
	}
	detail.PublishedByName = names.PublishedByName
	detail.ClosedByName = names.ClosedByName
	detail.AcknowledgedByName = names.AcknowledgedByName

	detail.Comments = []core.CommentView{}
	err = r.db.SelectContext(ctx, &detail.Comments, `
        SELECT c.id, u.name AS user_name, c.text, c.is_soc, c.created_at
        FROM incident_comments c
        JOIN users u ON u.id = c.user_id
        WHERE c.incident_id = $1
        ORDER BY c.created_at ASC`, id)
	if err != nil {
		return nil, err
	}

	detail.History = []core.StatusChangeView{}
	err = r.db.SelectContext(ctx, &detail.History, `
        SELECT h.old_status, h.new_status, u.name AS user_name, h.comment, h.created_at
        FROM incident_status_history h
        JOIN users u ON u.id = h.user_id
        WHERE h.incident_id = $1
        ORDER BY h.created_at ASC`, id)
	if err != nil {
		return nil, err
	}

	return detail, nil
}

func insertStatusChange(ctx context.Context, tx *sqlx.Tx, change *core.IncidentStatusChange) error {
	query := `
        INSERT INTO incident_status_history (id, incident_id, user_id, old_status, new_status, comment, created_at)
        VALUES (:id, :incident_id, :user_id, :old_status, :new_status, :comment, :created_at)`
	_, err := tx.NamedExecContext(ctx, query, change)
	return err
}
