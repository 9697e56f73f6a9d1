package core

import (
	"time"

	"github.com/google/uuid"
)

// Default per-priority MTTR targets in minutes, used for tenants
// without a custom sla_config.
const (
	DefaultMTTRCritical = 240
	DefaultMTTRHigh     = 1440
	DefaultMTTRMedium   = 4320
	DefaultMTTRLow      = 10080
)

// SlaSnapshot is an immutable rollup for one tenant over one time window.
// Re-running the aggregator appends a new row, it never updates a prior one.
type SlaSnapshot struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	PeriodStart time.Time `json:"period_start" db:"period_start"`
	PeriodEnd   time.Time `json:"period_end" db:"period_end"`

	// Nil means "no incident had a defined value", distinct from zero.
	MTTAMinutes   *float64 `json:"mtta_minutes" db:"mtta_minutes"`
	MTTRMinutes   *float64 `json:"mttr_minutes" db:"mttr_minutes"`
	CompliancePct *float64 `json:"compliance_pct" db:"compliance_pct"`

	IncidentsTotal      int       `json:"incidents_total" db:"incidents_total"`
	IncidentsByPriority JSONB     `json:"incidents_by_priority" db:"incidents_by_priority"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
}
