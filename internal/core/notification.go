package core

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotifyNewIncident   = "new_incident"
	NotifyStatusChange  = "status_change"
	NotifySOCComment    = "soc_comment"
	NotifyClientComment = "client_comment"
	NotifyAcknowledged  = "acknowledged"
	NotifyClientUpdate  = "client_update"
	NotifySOCUpdate     = "soc_update"
)

// Notification is an in-app message for a tenant (optionally one user).
type Notification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TenantID  uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	UserID    *uuid.UUID `json:"user_id" db:"user_id"`
	Type      string     `json:"type" db:"type"`
	Title     string     `json:"title" db:"title"`
	Message   string     `json:"message" db:"message"`
	IsRead    bool       `json:"is_read" db:"is_read"`
	ExtraData JSONB      `json:"extra_data" db:"extra_data"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxEvent is a pending delivery (email etc.) produced in the same
// transaction as the mutation that triggered it and drained by a worker.
type OutboxEvent struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	TenantID  uuid.UUID    `json:"tenant_id" db:"tenant_id"`
	Type      string       `json:"type" db:"type"`
	Payload   JSONB        `json:"payload" db:"payload"`
	Status    OutboxStatus `json:"status" db:"status"`
	Attempts  int          `json:"attempts" db:"attempts"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	SentAt    *time.Time   `json:"sent_at" db:"sent_at"`
}
