package core

import (
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ShortName string    `json:"short_name" db:"short_name"`

	// Upstream SIEM connection (modeled per-tenant, currently shared)
	SIEMAPIURL string `json:"siem_api_url" db:"siem_api_url"`
	SIEMAPIKey string `json:"-" db:"siem_api_key"`

	SLAConfig    JSONB   `json:"sla_config" db:"sla_config"`
	ContactEmail *string `json:"contact_email" db:"contact_email"`
	ContactPhone *string `json:"contact_phone" db:"contact_phone"`

	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// MTTRTargets returns the tenant's per-priority MTTR targets in minutes,
// falling back to the default targets for priorities without a custom value.
func (t *Tenant) MTTRTargets() map[Priority]float64 {
	targets := map[Priority]float64{
		PriorityCritical: DefaultMTTRCritical,
		PriorityHigh:     DefaultMTTRHigh,
		PriorityMedium:   DefaultMTTRMedium,
		PriorityLow:      DefaultMTTRLow,
	}
	custom, ok := t.SLAConfig["mttr_targets"].(map[string]interface{})
	if !ok {
		return targets
	}
	for p := range targets {
		if v, ok := custom[string(p)].(float64); ok && v > 0 {
			targets[p] = v
		}
	}
	return targets
}
