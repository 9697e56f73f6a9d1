package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/soclink/soclink/internal/core"
)

func (r *Repository) CreateUser(ctx context.Context, u *core.User) error {
	query := `
        INSERT INTO users (
            id, tenant_id, email, password_hash, name, role,
            mfa_enabled, is_active, created_at, updated_at
        ) VALUES (
            :id, :tenant_id, :email, :password_hash, :name, :role,
            :mfa_enabled, :is_active, :created_at, :updated_at
        )`
	_, err := r.db.NamedExecContext(ctx, query, u)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return core.ErrConflict
	}
	return err
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	var u core.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	var u core.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) ListUsers(ctx context.Context, tenantID *uuid.UUID) ([]core.User, error) {
	users := []core.User{}
	if tenantID != nil {
		err := r.db.SelectContext(ctx, &users,
			`SELECT * FROM users WHERE tenant_id = $1 ORDER BY email ASC`, *tenantID)
		return users, err
	}
	err := r.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY email ASC`)
	return users, err
}

func (r *Repository) UpdateUser(ctx context.Context, u *core.User) error {
	query := `
        UPDATE users SET
            email = :email,
            password_hash = :password_hash,
            name = :name,
            role = :role,
            mfa_enabled = :mfa_enabled,
            is_active = :is_active,
            last_login = :last_login,
            updated_at = :updated_at
        WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, u)
	return err
}

func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	return err
}
