// Package incidents is the incident lifecycle engine: publish-once
// semantics, the status state machine, and the side effects attached
// to every mutation.
package incidents

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soclink/soclink/internal/access"
	"github.com/soclink/soclink/internal/core"
	"github.com/soclink/soclink/internal/metrics"
	"github.com/soclink/soclink/internal/siem"
)

// Previewer fetches and normalizes an upstream incident for publishing.
type Previewer interface {
	FetchForPreview(ctx context.Context, externalID int64) (*siem.NormalizedIncident, error)
}

// Store is the persistence contract the engine needs. MutateIncident must
// run its callback under a transaction holding a row lock on the incident,
// so a mutation is never observable without its side-effect rows.
type Store interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*core.Tenant, error)
	GetIncident(ctx context.Context, id uuid.UUID) (*core.PublishedIncident, error)
	FindIncidentByExternal(ctx context.Context, tenantID uuid.UUID, externalID int64) (*core.PublishedIncident, error)
	CreatePublished(ctx context.Context, bundle *core.PublishBundle) error
	MutateIncident(ctx context.Context, id uuid.UUID, fn func(*core.PublishedIncident) (*core.IncidentMutation, error)) (*core.PublishedIncident, error)
	ListIncidents(ctx context.Context, filter core.IncidentFilter) ([]core.IncidentSummary, int, error)
	GetIncidentDetail(ctx context.Context, id uuid.UUID) (*core.IncidentDetail, error)
}

type Service struct {
	store     Store
	previewer Previewer
	logger    *zap.Logger
	metrics   *metrics.Collector
}

func NewService(store Store, previewer Previewer, logger *zap.Logger, collector *metrics.Collector) *Service {
	return &Service{
		store:     store,
		previewer: previewer,
		logger:    logger,
		metrics:   collector,
	}
}

// Preview fetches the normalized upstream incident so an analyst can
// review it before publishing. SOC only: clients never see unpublished
// incidents.
func (s *Service) Preview(ctx context.Context, actor core.Actor, externalID int64) (*siem.NormalizedIncident, error) {
	if actor.Kind() != core.ActorKindSOC {
		return nil, core.ErrAccessDenied
	}
	return s.previewer.FetchForPreview(ctx, externalID)
}

type PublishInput struct {
	ExternalID      int64
	TenantID        uuid.UUID
	Recommendations string
	SOCActions      *string
}

// Publish imports an upstream incident into a tenant's portal record.
// The incident row, its genesis status change (none -> new), the client
// notification, the outbox event and the audit record are one atomic unit.
func (s *Service) Publish(ctx context.Context, actor core.Actor, in PublishInput) (*core.PublishedIncident, error) {
	if actor.Kind() != core.ActorKindSOC {
		return nil, core.ErrAccessDenied
	}
	if in.Recommendations == "" {
		return nil, fmt.Errorf("recommendations are required to publish: %w", core.ErrValidation)
	}

	tenant, err := s.store.GetTenant(ctx, in.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant %s: %w", in.TenantID, err)
	}
	if !tenant.IsActive {
		return nil, fmt.Errorf("tenant %s is deactivated: %w", tenant.ShortName, core.ErrValidation)
	}

	existing, err := s.store.FindIncidentByExternal(ctx, in.TenantID, in.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("check existing publication: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("incident #%d is already published to %s: %w",
			in.ExternalID, tenant.Name, core.ErrConflict)
	}

	preview, err := s.previewer.FetchForPreview(ctx, in.ExternalID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	incident := &core.PublishedIncident{
		ID:                uuid.New(),
		TenantID:          in.TenantID,
		ExternalID:        in.ExternalID,
		Title:             preview.Title,
		Description:       preview.Description,
		Priority:          preview.Priority,
		PriorityNum:       preview.PriorityNum,
		Category:          preview.Category,
		MitreID:           preview.MitreID,
		SourceIPs:         preview.SourceIPs,
		SourceHostnames:   preview.SourceHostnames,
		EventSourceIPs:    preview.EventSourceIPs,
		EventCount:        preview.EventCount,
		Symptoms:          preview.Symptoms,
		ExternalCreatedAt: preview.ExternalCreatedAt,
		RawData:           preview.Raw,
		Recommendations:   &in.Recommendations,
		SOCActions:        in.SOCActions,
		Status:            core.StatusNew,
		PublishedBy:       actor.UserID,
		PublishedAt:       now,
		UpdatedAt:         now,
	}

	genesisComment := "Incident published to client"
	bundle := &core.PublishBundle{
		Incident: incident,
		Genesis: &core.IncidentStatusChange{
			ID:         uuid.New(),
			IncidentID: incident.ID,
			UserID:     actor.UserID,
			OldStatus:  core.StatusNone,
			NewStatus:  core.StatusNew,
			Comment:    &genesisComment,
			CreatedAt:  now,
		},
		Notification: &core.Notification{
			ID:       uuid.New(),
			TenantID: in.TenantID,
			Type:     core.NotifyNewIncident,
			Title:    fmt.Sprintf("New %s incident: %s", incident.Priority, truncate(incident.Title, 100)),
			Message:  fmt.Sprintf("SOC published incident #%d. Please review the recommendations.", in.ExternalID),
			ExtraData: core.JSONB{
				"incident_id": incident.ID.String(),
				"priority":    string(incident.Priority),
			},
			CreatedAt: now,
		},
		Outbox: &core.OutboxEvent{
			ID:       uuid.New(),
			TenantID: in.TenantID,
			Type:     core.NotifyNewIncident,
			Payload: core.JSONB{
				"incident_id":     incident.ID.String(),
				"external_id":     in.ExternalID,
				"title":           incident.Title,
				"priority":        string(incident.Priority),
				"recommendations": in.Recommendations,
			},
			Status:    core.OutboxPending,
			CreatedAt: now,
		},
		Audit: &core.AuditLog{
			ID:           uuid.New(),
			TenantID:     &in.TenantID,
			UserID:       &actor.UserID,
			Action:       core.AuditIncidentPublished,
			ResourceType: strPtr("incident"),
			ResourceID:   strPtr(incident.ID.String()),
			Details: core.JSONB{
				"external_id": in.ExternalID,
				"priority":    string(incident.Priority),
			},
			CreatedAt: now,
		},
	}

	if err := s.store.CreatePublished(ctx, bundle); err != nil {
		return nil, fmt.Errorf("publish incident #%d: %w", in.ExternalID, err)
	}

	s.metrics.RecordPublish(tenant.ShortName, incident.Priority)
	s.logger.Info("incident published",
		zap.Int64("external_id", in.ExternalID),
		zap.String("tenant", tenant.ShortName),
		zap.String("incident_id", incident.ID.String()),
		zap.String("priority", string(incident.Priority)),
	)
	return incident, nil
}

// ChangeStatus applies a status transition. Validation happens inside
// the mutation callback, under the incident's row lock, so two
// concurrent requests cannot both transition from the same old status.
func (s *Service) ChangeStatus(ctx context.Context, actor core.Actor, incidentID uuid.UUID, newStatus core.IncidentStatus, comment *string) (*core.PublishedIncident, error) {
	var oldStatus core.IncidentStatus

	updated, err := s.store.MutateIncident(ctx, incidentID, func(inc *core.PublishedIncident) (*core.IncidentMutation, error) {
		if err := access.RequireWriteIncidents(actor, inc.TenantID); err != nil {
			return nil, err
		}
		if err := ValidateTransition(actor.Kind(), inc.Status, newStatus); err != nil {
			s.metrics.RecordTransitionDenied(actor.Kind())
			return nil, err
		}

		now := time.Now().UTC()
		oldStatus = inc.Status
		inc.Status = newStatus
		inc.UpdatedAt = now
		if newStatus == core.StatusClosed {
			inc.ClosedBy = &actor.UserID
			inc.ClosedAt = &now
		}

		message := fmt.Sprintf("Status of '%s' was updated.", truncate(inc.Title, 80))
		if comment != nil && *comment != "" {
			message = *comment
		}

		return &core.IncidentMutation{
			Change: &core.IncidentStatusChange{
				ID:         uuid.New(),
				IncidentID: inc.ID,
				UserID:     actor.UserID,
				OldStatus:  oldStatus,
				NewStatus:  newStatus,
				Comment:    comment,
				CreatedAt:  now,
			},
			Notification: &core.Notification{
				ID:       uuid.New(),
				TenantID: inc.TenantID,
				Type:     core.NotifyStatusChange,
				Title:    fmt.Sprintf("Incident status changed: %s -> %s", oldStatus, newStatus),
				Message:  message,
				ExtraData: core.JSONB{
					"incident_id": inc.ID.String(),
					"old_status":  string(oldStatus),
					"new_status":  string(newStatus),
				},
				CreatedAt: now,
			},
			Outbox: &core.OutboxEvent{
				ID:       uuid.New(),
				TenantID: inc.TenantID,
				Type:     core.NotifyStatusChange,
				Payload: core.JSONB{
					"incident_id": inc.ID.String(),
					"external_id": inc.ExternalID,
					"title":       inc.Title,
					"old_status":  string(oldStatus),
					"new_status":  string(newStatus),
				},
				Status:    core.OutboxPending,
				CreatedAt: now,
			},
			Audit: &core.AuditLog{
				ID:           uuid.New(),
				TenantID:     &inc.TenantID,
				UserID:       &actor.UserID,
				Action:       core.AuditIncidentStatus,
				ResourceType: strPtr("incident"),
				ResourceID:   strPtr(inc.ID.String()),
				Details: core.JSONB{
					"old_status": string(oldStatus),
					"new_status": string(newStatus),
				},
				CreatedAt: now,
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordStatusChange(newStatus, actor.Kind())
	s.logger.Info("incident status changed",
		zap.String("incident_id", incidentID.String()),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(newStatus)),
		zap.String("actor_kind", string(actor.Kind())),
	)
	return updated, nil
}

// Acknowledge stamps who first took note of the incident. A second
// acknowledgement is rejected, not silently repeated.
func (s *Service) Acknowledge(ctx context.Context, actor core.Actor, incidentID uuid.UUID) (*core.PublishedIncident, error) {
	return s.store.MutateIncident(ctx, incidentID, func(inc *core.PublishedIncident) (*core.IncidentMutation, error) {
		if err := access.RequireWriteIncidents(actor, inc.TenantID); err != nil {
			return nil, err
		}
		if inc.AcknowledgedAt != nil {
			return nil, fmt.Errorf("incident already acknowledged: %w", core.ErrConflict)
		}

		now := time.Now().UTC()
		inc.AcknowledgedBy = &actor.UserID
		inc.AcknowledgedAt = &now
		inc.UpdatedAt = now

		return &core.IncidentMutation{
			Notification: &core.Notification{
				ID:        uuid.New(),
				TenantID:  inc.TenantID,
				Type:      core.NotifyAcknowledged,
				Title:     fmt.Sprintf("Incident acknowledged: %s", truncate(inc.Title, 80)),
				Message:   "The incident has been acknowledged.",
				ExtraData: core.JSONB{"incident_id": inc.ID.String()},
				CreatedAt: now,
			},
		}, nil
	})
}

// AddComment appends an immutable note to the incident thread and
// notifies the other side.
func (s *Service) AddComment(ctx context.Context, actor core.Actor, incidentID uuid.UUID, text string) (*core.IncidentComment, error) {
	if text == "" {
		return nil, fmt.Errorf("comment text is required: %w", core.ErrValidation)
	}

	var comment *core.IncidentComment
	isSOC := actor.Kind() == core.ActorKindSOC

	_, err := s.store.MutateIncident(ctx, incidentID, func(inc *core.PublishedIncident) (*core.IncidentMutation, error) {
		if err := access.RequireWriteIncidents(actor, inc.TenantID); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		comment = &core.IncidentComment{
			ID:         uuid.New(),
			TenantID:   inc.TenantID,
			IncidentID: inc.ID,
			UserID:     actor.UserID,
			Text:       text,
			IsSOC:      isSOC,
			CreatedAt:  now,
		}

		notifType := core.NotifyClientComment
		if isSOC {
			notifType = core.NotifySOCComment
		}

		return &core.IncidentMutation{
			Comment: comment,
			Notification: &core.Notification{
				ID:        uuid.New(),
				TenantID:  inc.TenantID,
				Type:      notifType,
				Title:     fmt.Sprintf("New comment on incident: %s", truncate(inc.Title, 80)),
				Message:   truncate(text, 200),
				ExtraData: core.JSONB{"incident_id": inc.ID.String()},
				CreatedAt: now,
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordComment(isSOC)
	return comment, nil
}

// UpdateClientResponse records the client's response text.
func (s *Service) UpdateClientResponse(ctx context.Context, actor core.Actor, incidentID uuid.UUID, response string) (*core.PublishedIncident, error) {
	if actor.Kind() != core.ActorKindClient {
		return nil, core.ErrAccessDenied
	}
	return s.store.MutateIncident(ctx, incidentID, func(inc *core.PublishedIncident) (*core.IncidentMutation, error) {
		if err := access.RequireWriteIncidents(actor, inc.TenantID); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		inc.ClientResponse = &response
		inc.UpdatedAt = now

		return &core.IncidentMutation{
			Notification: &core.Notification{
				ID:        uuid.New(),
				TenantID:  inc.TenantID,
				Type:      core.NotifyClientUpdate,
				Title:     fmt.Sprintf("Client response updated: %s", truncate(inc.Title, 80)),
				Message:   truncate(response, 200),
				ExtraData: core.JSONB{"incident_id": inc.ID.String()},
				CreatedAt: now,
			},
		}, nil
	})
}

// UpdateSOCFields mutates the SOC-authored text fields. SOC only.
func (s *Service) UpdateSOCFields(ctx context.Context, actor core.Actor, incidentID uuid.UUID, recommendations, socActions *string) (*core.PublishedIncident, error) {
	if actor.Kind() != core.ActorKindSOC {
		return nil, core.ErrAccessDenied
	}
	return s.store.MutateIncident(ctx, incidentID, func(inc *core.PublishedIncident) (*core.IncidentMutation, error) {
		if recommendations != nil {
			inc.Recommendations = recommendations
		}
		if socActions != nil {
			inc.SOCActions = socActions
		}
		inc.UpdatedAt = time.Now().UTC()

		return &core.IncidentMutation{
			Notification: &core.Notification{
				ID:        uuid.New(),
				TenantID:  inc.TenantID,
				Type:      core.NotifySOCUpdate,
				Title:     fmt.Sprintf("SOC updated incident: %s", truncate(inc.Title, 80)),
				Message:   "Recommendations or SOC actions were updated.",
				ExtraData: core.JSONB{"incident_id": inc.ID.String()},
				CreatedAt: inc.UpdatedAt,
			},
		}, nil
	})
}

// UpdateIOCAndAssets replaces the indicator and affected-asset lists. SOC only.
func (s *Service) UpdateIOCAndAssets(ctx context.Context, actor core.Actor, incidentID uuid.UUID, iocs, assets []string) (*core.PublishedIncident, error) {
	if actor.Kind() != core.ActorKindSOC {
		return nil, core.ErrAccessDenied
	}
	return s.store.MutateIncident(ctx, incidentID, func(inc *core.PublishedIncident) (*core.IncidentMutation, error) {
		if iocs != nil {
			inc.IOCs = iocs
		}
		if assets != nil {
			inc.AffectedAssets = assets
		}
		inc.UpdatedAt = time.Now().UTC()
		return &core.IncidentMutation{}, nil
	})
}

// List returns incident summaries. Client actors are pinned to their
// home tenant regardless of what the filter asked for.
func (s *Service) List(ctx context.Context, actor core.Actor, filter core.IncidentFilter) ([]core.IncidentSummary, int, error) {
	scoped, err := access.ScopeTenant(actor, filter.TenantID)
	if err != nil {
		return nil, 0, err
	}
	filter.TenantID = scoped

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > 100 {
		filter.PerPage = 25
	}

	return s.store.ListIncidents(ctx, filter)
}

// GetDetail returns the full incident view with comments and history.
// The tenant check happens after the fetch: a cross-tenant client gets
// access denied, never a found-vs-not-found signal.
func (s *Service) GetDetail(ctx context.Context, actor core.Actor, incidentID uuid.UUID) (*core.IncidentDetail, error) {
	detail, err := s.store.GetIncidentDetail(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireRead(actor, detail.TenantID); err != nil {
		return nil, err
	}
	return detail, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func strPtr(s string) *string { return &s }
