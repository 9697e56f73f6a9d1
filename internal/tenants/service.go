// Package tenants manages client organization records. All operations
// are restricted to the SOC admin role.
package tenants

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/access"
	"github.com/soclink/soclink/internal/core"
)

type Store interface {
	CreateTenant(ctx context.Context, t *core.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*core.Tenant, error)
	GetTenantByShortName(ctx context.Context, shortName string) (*core.Tenant, error)
	ListTenants(ctx context.Context, activeOnly bool) ([]core.Tenant, error)
	UpdateTenant(ctx context.Context, t *core.Tenant) error
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
	Name         string
	ShortName    string
	SIEMAPIURL   string
	SIEMAPIKey   string
	SLAConfig    core.JSONB
	ContactEmail *string
	ContactPhone *string
}

func (s *Service) Create(ctx context.Context, actor core.Actor, in CreateInput) (*core.Tenant, error) {
	if err := access.RequireManageTenants(actor); err != nil {
		return nil, err
	}
	if in.Name == "" || in.ShortName == "" {
		return nil, fmt.Errorf("name and short_name are required: %w", core.ErrValidation)
	}

	if existing, err := s.store.GetTenantByShortName(ctx, in.ShortName); err == nil && existing != nil {
		return nil, fmt.Errorf("short name %q is taken: %w", in.ShortName, core.ErrConflict)
	}

	now := time.Now().UTC()
	tenant := &core.Tenant{
		ID:           uuid.New(),
		Name:         in.Name,
		ShortName:    in.ShortName,
		SIEMAPIURL:   in.SIEMAPIURL,
		SIEMAPIKey:   in.SIEMAPIKey,
		SLAConfig:    in.SLAConfig,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if tenant.SLAConfig == nil {
		tenant.SLAConfig = core.JSONB{}
	}

	if err := s.store.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, core.AuditTenantCreated, tenant)

	s.logger.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("short_name", tenant.ShortName),
	)
	return tenant, nil
}

type UpdateInput struct {
	Name         *string
	SIEMAPIURL   *string
	SIEMAPIKey   *string
	SLAConfig    core.JSONB
	ContactEmail *string
	ContactPhone *string
}

// Update mutates tenant settings. The short name is immutable, it is
// referenced in external integrations.
func (s *Service) Update(ctx context.Context, actor core.Actor, id uuid.UUID, in UpdateInput) (*core.Tenant, error) {
	if err := access.RequireManageTenants(actor); err != nil {
		return nil, err
	}
	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		tenant.Name = *in.Name
	}
	if in.SIEMAPIURL != nil {
		tenant.SIEMAPIURL = *in.SIEMAPIURL
	}
	if in.SIEMAPIKey != nil {
		tenant.SIEMAPIKey = *in.SIEMAPIKey
	}
	if in.SLAConfig != nil {
		tenant.SLAConfig = in.SLAConfig
	}
	if in.ContactEmail != nil {
		tenant.ContactEmail = in.ContactEmail
	}
	if in.ContactPhone != nil {
		tenant.ContactPhone = in.ContactPhone
	}
	tenant.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTenant(ctx, tenant); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, core.AuditTenantUpdated, tenant)
	return tenant, nil
}

// Deactivate soft-deletes a tenant. Its users can no longer log in and
// no new incidents can be published to it, but all records remain.
func (s *Service) Deactivate(ctx context.Context, actor core.Actor, id uuid.UUID) error {
	if err := access.RequireManageTenants(actor); err != nil {
		return err
	}
	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return err
	}
	if !tenant.IsActive {
		return nil
	}
	tenant.IsActive = false
	tenant.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateTenant(ctx, tenant); err != nil {
		return err
	}
	s.audit(ctx, actor, core.AuditTenantDeactivated, tenant)
	return nil
}

func (s *Service) Get(ctx context.Context, actor core.Actor, id uuid.UUID) (*core.Tenant, error) {
	if err := access.RequireRead(actor, id); err != nil {
		return nil, err
	}
	return s.store.GetTenant(ctx, id)
}

// List returns all tenants. SOC only: a client has exactly one tenant
// and reads it through Get.
func (s *Service) List(ctx context.Context, actor core.Actor, activeOnly bool) ([]core.Tenant, error) {
	if actor.Kind() != core.ActorKindSOC {
		return nil, core.ErrAccessDenied
	}
	return s.store.ListTenants(ctx, activeOnly)
}

func (s *Service) audit(ctx context.Context, actor core.Actor, action string, tenant *core.Tenant) {
	entry := &core.AuditLog{
		ID:           uuid.New(),
		TenantID:     &tenant.ID,
		UserID:       &actor.UserID,
		Action:       action,
		ResourceType: resource("tenant"),
		ResourceID:   resource(tenant.ID.String()),
		Details:      core.JSONB{"short_name": tenant.ShortName},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.InsertAudit(ctx, entry); err != nil {
		s.logger.Warn("failed to write tenant audit", zap.Error(err))
	}
}

func resource(s string) *string { return &s }
