package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/soclink/soclink/internal/core"
)

func (r *Repository) CreateTenant(ctx context.Context, t *core.Tenant) error {
	query := `
        INSERT INTO tenants (
            id, name, short_name, siem_api_url, siem_api_key, sla_config,
            contact_email, contact_phone, is_active, created_at, updated_at
        ) VALUES (
            :id, :name, :short_name, :siem_api_url, :siem_api_key, :sla_config,
            :contact_email, :contact_phone, :is_active, :created_at, :updated_at
        )`
	_, err := r.db.NamedExecContext(ctx, query, t)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return core.ErrConflict
	}
	return err
}

func (r *Repository) GetTenant(ctx context.Context, id uuid.UUID) (*core.Tenant, error) {
	var t core.Tenant
	err := r.db.GetContext(ctx, &t, `SELECT * FROM tenants WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) GetTenantByShortName(ctx context.Context, shortName string) (*core.Tenant, error) {
	var t core.Tenant
	err := r.db.GetContext(ctx, &t, `SELECT * FROM tenants WHERE short_name = $1`, shortName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) ListTenants(ctx context.Context, activeOnly bool) ([]core.Tenant, error) {
	tenants := []core.Tenant{}
	query := `SELECT * FROM tenants ORDER BY name ASC`
	if activeOnly {
		query = `SELECT * FROM tenants WHERE is_active = true ORDER BY name ASC`
	}
	err := r.db.SelectContext(ctx, &tenants, query)
	return tenants, err
}

func (r *Repository) UpdateTenant(ctx context.Context, t *core.Tenant) error {
	query := `
        UPDATE tenants SET
            name = :name,
            siem_api_url = :siem_api_url,
            siem_api_key = :siem_api_key,
            sla_config = :sla_config,
            contact_email = :contact_email,
            contact_phone = :contact_phone,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, t)
	return err
}
