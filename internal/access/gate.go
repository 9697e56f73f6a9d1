// Package access is the tenant isolation gate: pure predicates deciding
// whether an actor may touch a tenant-scoped resource. Every mutating
// service calls into it before storage, and repositories re-scope
// client queries by tenant as the last line of defense.
package access

import (
	"github.com/google/uuid"

	"github.com/soclink/soclink/internal/core"
)

// CanRead reports whether the actor may read data belonging to tenantID.
// SOC roles read across all tenants; client roles only their own.
func CanRead(actor core.Actor, tenantID uuid.UUID) bool {
	if actor.Kind() == core.ActorKindSOC {
		return true
	}
	return actor.TenantID != nil && *actor.TenantID == tenantID
}

// CanWriteIncidents reports whether the actor may mutate incident data
// belonging to tenantID. Auditor and read-only client roles never write.
func CanWriteIncidents(actor core.Actor, tenantID uuid.UUID) bool {
	if actor.Kind() == core.ActorKindSOC {
		return true
	}
	if actor.Role.ReadOnly() {
		return false
	}
	return actor.TenantID != nil && *actor.TenantID == tenantID
}

// CanManageTenants reports whether the actor may create or mutate tenant
// and user records. Only the administrative SOC role may.
func CanManageTenants(actor core.Actor) bool {
	return actor.Role == core.RoleSOCAdmin
}

// RequireRead returns ErrAccessDenied unless CanRead holds. A denied
// client never learns whether the resource exists.
func RequireRead(actor core.Actor, tenantID uuid.UUID) error {
	if !CanRead(actor, tenantID) {
		return core.ErrAccessDenied
	}
	return nil
}

func RequireWriteIncidents(actor core.Actor, tenantID uuid.UUID) error {
	if !CanWriteIncidents(actor, tenantID) {
		return core.ErrAccessDenied
	}
	return nil
}

func RequireManageTenants(actor core.Actor) error {
	if !CanManageTenants(actor) {
		return core.ErrAccessDenied
	}
	return nil
}

// ScopeTenant resolves the effective tenant filter for list queries:
// SOC actors may pass any requested tenant (or none for a global view),
// client actors are always pinned to their home tenant regardless of
// what they asked for.
func ScopeTenant(actor core.Actor, requested *uuid.UUID) (*uuid.UUID, error) {
	if actor.Kind() == core.ActorKindSOC {
		return requested, nil
	}
	if actor.TenantID == nil {
		return nil, core.ErrAccessDenied
	}
	if requested != nil && *requested != *actor.TenantID {
		return nil, core.ErrAccessDenied
	}
	return actor.TenantID, nil
}
