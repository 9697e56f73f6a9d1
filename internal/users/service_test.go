package users

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/core"
)

type fakeStore struct {
	users   map[uuid.UUID]*core.User
	tenants map[uuid.UUID]*core.Tenant
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[uuid.UUID]*core.User),
		tenants: make(map[uuid.UUID]*core.Tenant),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, u *core.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return core.ErrConflict
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*core.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeStore) ListUsers(_ context.Context, tenantID *uuid.UUID) ([]core.User, error) {
	var out []core.User
	for _, u := range f.users {
		if tenantID != nil {
			if u.TenantID == nil || *u.TenantID != *tenantID {
				continue
			}
		}
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, u *core.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) GetTenant(_ context.Context, id uuid.UUID) (*core.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) InsertAudit(_ context.Context, _ *core.AuditLog) error {
	return nil
}

func seedTenant(store *fakeStore) *core.Tenant {
	t := &core.Tenant{ID: uuid.New(), Name: "Acme", ShortName: "acme", IsActive: true}
	store.tenants[t.ID] = t
	return t
}

func admin() core.Actor {
	return core.Actor{UserID: uuid.New(), Role: core.RoleSOCAdmin}
}

func TestCreateEnforcesRoleTenantBinding(t *testing.T) {
	store := newFakeStore()
	tenant := seedTenant(store)
	svc := NewService(store, zap.NewNop())
	ctx := context.Background()

	// SOC role with a tenant binding is invalid.
	_, err := svc.Create(ctx, admin(), CreateInput{
		Email: "a@soc.example", Password: "pw", Role: core.RoleSOCAnalyst, TenantID: &tenant.ID,
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("soc+tenant err = %v, want ErrValidation", err)
	}

	// Client role without a tenant is invalid.
	_, err = svc.Create(ctx, admin(), CreateInput{
		Email: "b@acme.example", Password: "pw", Role: core.RoleClientSecurity,
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("client-no-tenant err = %v, want ErrValidation", err)
	}

	// Both valid shapes pass.
	if _, err := svc.Create(ctx, admin(), CreateInput{
		Email: "a@soc.example", Password: "pw", Role: core.RoleSOCAnalyst,
	}); err != nil {
		t.Fatalf("soc create: %v", err)
	}
	if _, err := svc.Create(ctx, admin(), CreateInput{
		Email: "b@acme.example", Password: "pw", Role: core.RoleClientSecurity, TenantID: &tenant.ID,
	}); err != nil {
		t.Fatalf("client create: %v", err)
	}
}

func TestCreateRequiresSOCAdmin(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, zap.NewNop())

	analyst := core.Actor{UserID: uuid.New(), Role: core.RoleSOCAnalyst}
	_, err := svc.Create(context.Background(), analyst, CreateInput{
		Email: "x@soc.example", Password: "pw", Role: core.RoleSOCAnalyst,
	})
	if !errors.Is(err, core.ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
}

func TestCreateRejectsInactiveTenant(t *testing.T) {
	store := newFakeStore()
	tenant := seedTenant(store)
	tenant.IsActive = false
	svc := NewService(store, zap.NewNop())

	_, err := svc.Create(context.Background(), admin(), CreateInput{
		Email: "x@acme.example", Password: "pw", Role: core.RoleClientAdmin, TenantID: &tenant.ID,
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestUpdateCannotCrossSOCClientBoundary(t *testing.T) {
	store := newFakeStore()
	tenant := seedTenant(store)
	svc := NewService(store, zap.NewNop())
	ctx := context.Background()

	user, err := svc.Create(ctx, admin(), CreateInput{
		Email: "b@acme.example", Password: "pw", Role: core.RoleClientSecurity, TenantID: &tenant.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	socRole := core.RoleSOCAnalyst
	if _, err := svc.Update(ctx, admin(), user.ID, UpdateInput{Role: &socRole}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("cross-boundary role change err = %v, want ErrValidation", err)
	}

	clientAdmin := core.RoleClientAdmin
	updated, err := svc.Update(ctx, admin(), user.ID, UpdateInput{Role: &clientAdmin})
	if err != nil {
		t.Fatalf("same-side role change: %v", err)
	}
	if updated.Role != core.RoleClientAdmin {
		t.Errorf("role = %q", updated.Role)
	}
}

func TestDeactivateSelfRejected(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, zap.NewNop())
	actor := admin()
	store.users[actor.UserID] = &core.User{ID: actor.UserID, Role: core.RoleSOCAdmin, IsActive: true}

	if err := svc.Deactivate(context.Background(), actor, actor.UserID); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("self-deactivate err = %v, want ErrValidation", err)
	}
}

func TestListScoping(t *testing.T) {
	store := newFakeStore()
	tenant := seedTenant(store)
	other := seedTenant(store)
	svc := NewService(store, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Create(ctx, admin(), CreateInput{Email: "a@acme.example", Password: "pw", Role: core.RoleClientSecurity, TenantID: &tenant.ID}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, admin(), CreateInput{Email: "b@beta.example", Password: "pw", Role: core.RoleClientSecurity, TenantID: &other.ID}); err != nil {
		t.Fatalf("create: %v", err)
	}

	clientAdmin := core.Actor{UserID: uuid.New(), Role: core.RoleClientAdmin, TenantID: &tenant.ID}
	users, err := svc.List(ctx, clientAdmin, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, u := range users {
		if u.TenantID == nil || *u.TenantID != tenant.ID {
			t.Errorf("client admin saw foreign user %s", u.Email)
		}
	}

	if _, err := svc.List(ctx, clientAdmin, &other.ID); !errors.Is(err, core.ErrAccessDenied) {
		t.Fatalf("foreign tenant list err = %v, want ErrAccessDenied", err)
	}

	security := core.Actor{UserID: uuid.New(), Role: core.RoleClientSecurity, TenantID: &tenant.ID}
	if _, err := svc.List(ctx, security, nil); !errors.Is(err, core.ErrAccessDenied) {
		t.Fatalf("non-admin list err = %v, want ErrAccessDenied", err)
	}
}
