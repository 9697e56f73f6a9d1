package core

import "github.com/google/uuid"

type Role string

const (
	RoleSOCAdmin       Role = "soc_admin"
	RoleSOCAnalyst     Role = "soc_analyst"
	RoleClientAdmin    Role = "client_admin"
	RoleClientSecurity Role = "client_security"
	RoleClientAuditor  Role = "client_auditor"
	RoleClientReadonly Role = "client_readonly"
)

var AllRoles = []Role{
	RoleSOCAdmin, RoleSOCAnalyst,
	RoleClientAdmin, RoleClientSecurity, RoleClientAuditor, RoleClientReadonly,
}

func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

func (r Role) IsSOC() bool {
	return r == RoleSOCAdmin || r == RoleSOCAnalyst
}

// ReadOnly reports whether the role may never write incident data.
func (r Role) ReadOnly() bool {
	return r == RoleClientAuditor || r == RoleClientReadonly
}

type ActorKind string

const (
	ActorKindSOC    ActorKind = "soc"
	ActorKindClient ActorKind = "client"
)

// Actor is the identity context carried through every operation:
// who is acting, with which role, bound to which tenant (nil for SOC staff).
type Actor struct {
	UserID   uuid.UUID
	Role     Role
	TenantID *uuid.UUID
}

func (a Actor) Kind() ActorKind {
	if a.Role.IsSOC() {
		return ActorKindSOC
	}
	return ActorKindClient
}
