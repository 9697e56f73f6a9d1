// Package users manages portal accounts. The role-tenant invariant lives
// here: SOC roles are never tenant-bound, client roles always are.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/access"
	"github.com/soclink/soclink/internal/auth"
	"github.com/soclink/soclink/internal/core"
)

type Store interface {
	CreateUser(ctx context.Context, u *core.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*core.User, error)
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)
	ListUsers(ctx context.Context, tenantID *uuid.UUID) ([]core.User, error)
	UpdateUser(ctx context.Context, u *core.User) error
	GetTenant(ctx context.Context, id uuid.UUID) (*core.Tenant, error)
	InsertAudit(ctx context.Context, a *core.AuditLog) error
}

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

type CreateInput struct {
	Email    string
	Password string
	Name     string
	Role     core.Role
	TenantID *uuid.UUID
}

// validateBinding enforces the role-tenant invariant.
func validateBinding(role core.Role, tenantID *uuid.UUID) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q: %w", role, core.ErrValidation)
	}
	if role.IsSOC() && tenantID != nil {
		return fmt.Errorf("SOC roles must not be bound to a tenant: %w", core.ErrValidation)
	}
	if !role.IsSOC() && tenantID == nil {
		return fmt.Errorf("client roles require a tenant: %w", core.ErrValidation)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, actor core.Actor, in CreateInput) (*core.User, error) {
	if err := access.RequireManageTenants(actor); err != nil {
		return nil, err
	}
	if in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", core.ErrValidation)
	}
	if err := validateBinding(in.Role, in.TenantID); err != nil {
		return nil, err
	}

	if in.TenantID != nil {
		tenant, err := s.store.GetTenant(ctx, *in.TenantID)
		if err != nil {
			return nil, fmt.Errorf("tenant %s: %w", in.TenantID, err)
		}
		if !tenant.IsActive {
			return nil, fmt.Errorf("tenant %s is deactivated: %w", tenant.ShortName, core.ErrValidation)
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &core.User{
		ID:           uuid.New(),
		TenantID:     in.TenantID,
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, core.AuditUserCreated, user)
	return user, nil
}

type UpdateInput struct {
	Name *string
	Role *core.Role
}

func (s *Service) Update(ctx context.Context, actor core.Actor, id uuid.UUID, in UpdateInput) (*core.User, error) {
	if err := access.RequireManageTenants(actor); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Role != nil {
		// A role change may not cross the SOC/client boundary, that would
		// break the tenant binding.
		if err := validateBinding(*in.Role, user.TenantID); err != nil {
			return nil, err
		}
		user.Role = *in.Role
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, core.AuditUserUpdated, user)
	return user, nil
}

func (s *Service) ResetPassword(ctx context.Context, actor core.Actor, id uuid.UUID, newPassword string) error {
	if err := access.RequireManageTenants(actor); err != nil {
		return err
	}
	if newPassword == "" {
		return fmt.Errorf("password is required: %w", core.ErrValidation)
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.audit(ctx, actor, core.AuditPasswordReset, user)
	return nil
}

func (s *Service) Deactivate(ctx context.Context, actor core.Actor, id uuid.UUID) error {
	if err := access.RequireManageTenants(actor); err != nil {
		return err
	}
	if actor.UserID == id {
		return fmt.Errorf("cannot deactivate your own account: %w", core.ErrValidation)
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return nil
	}
	user.IsActive = false
	user.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.audit(ctx, actor, core.AuditUserDeactivated, user)
	return nil
}

// List returns users visible to the actor: SOC admins see everyone (or
// one tenant when filtered), client admins only their own tenant.
func (s *Service) List(ctx context.Context, actor core.Actor, tenantID *uuid.UUID) ([]core.User, error) {
	if actor.Role == core.RoleSOCAdmin {
		return s.store.ListUsers(ctx, tenantID)
	}
	if actor.Role == core.RoleClientAdmin && actor.TenantID != nil {
		if tenantID != nil && *tenantID != *actor.TenantID {
			return nil, core.ErrAccessDenied
		}
		return s.store.ListUsers(ctx, actor.TenantID)
	}
	return nil, core.ErrAccessDenied
}

func (s *Service) audit(ctx context.Context, actor core.Actor, action string, subject *core.User) {
	entry := &core.AuditLog{
		ID:           uuid.New(),
		TenantID:     subject.TenantID,
		UserID:       &actor.UserID,
		Action:       action,
		ResourceType: resource("user"),
		ResourceID:   resource(subject.ID.String()),
		Details:      core.JSONB{"email": subject.Email, "role": string(subject.Role)},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.InsertAudit(ctx, entry); err != nil {
		s.logger.Warn("failed to write user audit", zap.Error(err))
	}
}

func resource(s string) *string { return &s }
