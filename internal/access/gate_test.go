package access

import (
	"testing"

	"github.com/google/uuid"

	"github.com/soclink/soclink/internal/core"
)

func clientActor(role core.Role, tenantID uuid.UUID) core.Actor {
	return core.Actor{UserID: uuid.New(), Role: role, TenantID: &tenantID}
}

func TestSOCReadsAcrossTenants(t *testing.T) {
	soc := core.Actor{UserID: uuid.New(), Role: core.RoleSOCAnalyst}
	if !CanRead(soc, uuid.New()) {
		t.Fatal("SOC analyst should read any tenant")
	}
	if !CanWriteIncidents(soc, uuid.New()) {
		t.Fatal("SOC analyst should write incidents for any tenant")
	}
}

func TestClientCrossTenantDenied(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()
	actor := clientActor(core.RoleClientAdmin, tenantA)

	if CanRead(actor, tenantB) {
		t.Fatal("client actor must not read another tenant")
	}
	if err := RequireRead(actor, tenantB); err != core.ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if !CanRead(actor, tenantA) {
		t.Fatal("client actor should read own tenant")
	}
}

func TestReadOnlyClientRolesCannotWrite(t *testing.T) {
	tenant := uuid.New()
	for _, role := range []core.Role{core.RoleClientAuditor, core.RoleClientReadonly} {
		actor := clientActor(role, tenant)
		if CanWriteIncidents(actor, tenant) {
			t.Fatalf("%s must not write incidents", role)
		}
		if !CanRead(actor, tenant) {
			t.Fatalf("%s should still read own tenant", role)
		}
	}
}

func TestOnlySOCAdminManagesTenants(t *testing.T) {
	if !CanManageTenants(core.Actor{Role: core.RoleSOCAdmin}) {
		t.Fatal("soc_admin should manage tenants")
	}
	if CanManageTenants(core.Actor{Role: core.RoleSOCAnalyst}) {
		t.Fatal("soc_analyst must not manage tenants")
	}
	tenant := uuid.New()
	if CanManageTenants(clientActor(core.RoleClientAdmin, tenant)) {
		t.Fatal("client_admin must not manage tenants")
	}
}

func TestScopeTenant(t *testing.T) {
	home := uuid.New()
	other := uuid.New()
	client := clientActor(core.RoleClientSecurity, home)

	// Client with no requested tenant is pinned to home.
	scoped, err := ScopeTenant(client, nil)
	if err != nil || scoped == nil || *scoped != home {
		t.Fatalf("expected home tenant, got %v, %v", scoped, err)
	}

	// Client requesting a foreign tenant is denied.
	if _, err := ScopeTenant(client, &other); err != core.ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	// SOC keeps whatever was requested, including a global view.
	soc := core.Actor{Role: core.RoleSOCAdmin}
	scoped, err = ScopeTenant(soc, &other)
	if err != nil || scoped == nil || *scoped != other {
		t.Fatalf("expected requested tenant for SOC, got %v, %v", scoped, err)
	}
	scoped, err = ScopeTenant(soc, nil)
	if err != nil || scoped != nil {
		t.Fatalf("expected nil scope for SOC global view, got %v, %v", scoped, err)
	}
}
