package core

import (
	"time"

	"github.com/google/uuid"
)

type SourceStatus string

const (
	SourceActive   SourceStatus = "active"
	SourceDegraded SourceStatus = "degraded"
	SourceNoLogs   SourceStatus = "no_logs"
	SourceError    SourceStatus = "error"
	SourceUnknown  SourceStatus = "unknown"
)

// LogSource is a monitored log-emitting asset belonging to one tenant.
type LogSource struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	TenantID    uuid.UUID    `json:"tenant_id" db:"tenant_id"`
	Name        string       `json:"name" db:"name"`
	SourceType  string       `json:"source_type" db:"source_type"`
	Host        string       `json:"host" db:"host"`
	Vendor      *string      `json:"vendor" db:"vendor"`
	Product     *string      `json:"product" db:"product"`
	GroupName   *string      `json:"group_name" db:"group_name"`
	Status      SourceStatus `json:"status" db:"status"`
	LastEventAt *time.Time   `json:"last_event_at" db:"last_event_at"`
	EPS         *float64     `json:"eps" db:"eps"`
	IsActive    bool         `json:"is_active" db:"is_active"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

type SourceStats struct {
	Total    int `json:"total" db:"total"`
	Active   int `json:"active" db:"active"`
	Degraded int `json:"degraded" db:"degraded"`
	NoLogs   int `json:"no_logs" db:"no_logs"`
	Error    int `json:"error" db:"error"`
	Unknown  int `json:"unknown" db:"unknown"`
}
