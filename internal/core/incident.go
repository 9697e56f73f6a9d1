package core

import (
	"time"

	"github.com/google/uuid"
)

type IncidentStatus string

const (
	// StatusNone is the sentinel old-status of every incident's genesis
	// history record. Incidents never hold this status themselves.
	StatusNone             IncidentStatus = "none"
	StatusNew              IncidentStatus = "new"
	StatusInProgress       IncidentStatus = "in_progress"
	StatusAwaitingCustomer IncidentStatus = "awaiting_customer"
	StatusAwaitingSOC      IncidentStatus = "awaiting_soc"
	StatusResolved         IncidentStatus = "resolved"
	StatusClosed           IncidentStatus = "closed"
	StatusFalsePositive    IncidentStatus = "false_positive"
)

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the numeric sort rank (1 = most urgent).
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 3
	default:
		return 4
	}
}

// PublishedIncident is the portal's own record of a SOC-vetted incident.
// Field groups by provenance: imported from the SIEM (immutable after
// publish), SOC-authored, client-authored, and workflow state.
type PublishedIncident struct {
	ID       uuid.UUID `json:"id" db:"id"`
	TenantID uuid.UUID `json:"tenant_id" db:"tenant_id"`

	// Imported from the SIEM at publish time
	ExternalID        int64       `json:"external_id" db:"external_id"`
	Title             string      `json:"title" db:"title"`
	Description       *string     `json:"description" db:"description"`
	Priority          Priority    `json:"priority" db:"priority"`
	PriorityNum       int         `json:"priority_num" db:"priority_num"`
	Category          *string     `json:"category" db:"category"`
	MitreID           *string     `json:"mitre_id" db:"mitre_id"`
	SourceIPs         StringSlice `json:"source_ips" db:"source_ips"`
	SourceHostnames   StringSlice `json:"source_hostnames" db:"source_hostnames"`
	EventSourceIPs    StringSlice `json:"event_source_ips" db:"event_source_ips"`
	EventCount        int         `json:"event_count" db:"event_count"`
	Symptoms          StringSlice `json:"symptoms" db:"symptoms"`
	ExternalCreatedAt *time.Time  `json:"external_created_at" db:"external_created_at"`
	RawData           JSONB       `json:"-" db:"raw_data"`

	// SOC-authored
	Recommendations *string     `json:"recommendations" db:"recommendations"`
	SOCActions      *string     `json:"soc_actions" db:"soc_actions"`
	IOCs            StringSlice `json:"iocs" db:"iocs"`
	AffectedAssets  StringSlice `json:"affected_assets" db:"affected_assets"`

	// Client-authored
	ClientResponse *string `json:"client_response" db:"client_response"`

	// Workflow state (mutated by the lifecycle engine only)
	Status         IncidentStatus `json:"status" db:"status"`
	PublishedBy    uuid.UUID      `json:"published_by" db:"published_by"`
	PublishedAt    time.Time      `json:"published_at" db:"published_at"`
	ClosedBy       *uuid.UUID     `json:"closed_by" db:"closed_by"`
	ClosedAt       *time.Time     `json:"closed_at" db:"closed_at"`
	AcknowledgedBy *uuid.UUID     `json:"acknowledged_by" db:"acknowledged_by"`
	AcknowledgedAt *time.Time     `json:"acknowledged_at" db:"acknowledged_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

type IncidentComment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"-" db:"tenant_id"`
	IncidentID uuid.UUID `json:"incident_id" db:"incident_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Text       string    `json:"text" db:"text"`
	IsSOC      bool      `json:"is_soc" db:"is_soc"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// IncidentStatusChange is the append-only audit record of a transition.
// It is the authoritative source for SLA timing.
type IncidentStatusChange struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	IncidentID uuid.UUID      `json:"incident_id" db:"incident_id"`
	UserID     uuid.UUID      `json:"user_id" db:"user_id"`
	OldStatus  IncidentStatus `json:"old_status" db:"old_status"`
	NewStatus  IncidentStatus `json:"new_status" db:"new_status"`
	Comment    *string        `json:"comment" db:"comment"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

type IncidentFilter struct {
	TenantID *uuid.UUID
	Status   IncidentStatus
	Priority Priority
	From     *time.Time
	To       *time.Time
	Page     int
	PerPage  int
}

type IncidentSummary struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	ExternalID    int64          `json:"external_id" db:"external_id"`
	TenantID      uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	Title         string         `json:"title" db:"title"`
	Priority      Priority       `json:"priority" db:"priority"`
	Status        IncidentStatus `json:"status" db:"status"`
	Category      *string        `json:"category" db:"category"`
	PublishedAt   time.Time      `json:"published_at" db:"published_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
	CommentsCount int            `json:"comments_count" db:"comments_count"`
}

type CommentView struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserName  string    `json:"user_name" db:"user_name"`
	Text      string    `json:"text" db:"text"`
	IsSOC     bool      `json:"is_soc" db:"is_soc"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type StatusChangeView struct {
	OldStatus IncidentStatus `json:"old_status" db:"old_status"`
	NewStatus IncidentStatus `json:"new_status" db:"new_status"`
	UserName  string         `json:"user_name" db:"user_name"`
	Comment   *string        `json:"comment" db:"comment"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// IncidentDetail is the renderer-ready read shape: display names resolved
// and the comment thread / status history flattened oldest-first.
type IncidentDetail struct {
	PublishedIncident
	PublishedByName    string             `json:"published_by_name"`
	ClosedByName       *string            `json:"closed_by_name"`
	AcknowledgedByName *string            `json:"acknowledged_by_name"`
	Comments           []CommentView      `json:"comments"`
	History            []StatusChangeView `json:"status_history"`
}

// PublishBundle is the atomic unit written when an incident is published:
// the incident row, its genesis status change, the client notification,
// the outbox event and the audit record commit or roll back together.
type PublishBundle struct {
	Incident     *PublishedIncident
	Genesis      *IncidentStatusChange
	Notification *Notification
	Outbox       *OutboxEvent
	Audit        *AuditLog
}

// IncidentMutation is the set of side-effect rows accompanying one
// incident mutation inside the same transaction.
type IncidentMutation struct {
	Change       *IncidentStatusChange
	Comment      *IncidentComment
	Notification *Notification
	Outbox       *OutboxEvent
	Audit        *AuditLog
}
