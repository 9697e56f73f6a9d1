package core

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditLoginSuccess      = "login_success"
	AuditLoginFailed       = "login_failed"
	AuditIncidentPublished = "incident_published"
	AuditIncidentStatus    = "incident_status_changed"
	AuditUserCreated       = "user_created"
	AuditUserUpdated       = "user_updated"
	AuditUserDeactivated   = "user_deactivated"
	AuditTenantCreated     = "tenant_created"
	AuditTenantUpdated     = "tenant_updated"
	AuditTenantDeactivated = "tenant_deactivated"
	AuditPasswordReset     = "password_reset"
	AuditSourceCreated     = "source_created"
	AuditSourceDeactivated = "source_deactivated"
)

// AuditLog rows are append-only: queried, never mutated.
type AuditLog struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     *uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UserID       *uuid.UUID `json:"user_id" db:"user_id"`
	Action       string     `json:"action" db:"action"`
	ResourceType *string    `json:"resource_type" db:"resource_type"`
	ResourceID   *string    `json:"resource_id" db:"resource_id"`
	Details      JSONB      `json:"details" db:"details"`
	IPAddress    *string    `json:"ip_address" db:"ip_address"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
