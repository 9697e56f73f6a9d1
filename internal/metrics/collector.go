package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/soclink/soclink/internal/core"
)

type Collector struct {
	incidentsPublished *prometheus.CounterVec
	statusChanges      *prometheus.CounterVec
	transitionsDenied  *prometheus.CounterVec
	commentsAdded      *prometheus.CounterVec

	sourceStatusUpdates prometheus.Counter
	slaSnapshots        prometheus.Counter

	siemRequests *prometheus.CounterVec

	outboxDelivered prometheus.Counter
	outboxFailed    prometheus.Counter
}

// NewCollector registers the portal metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in binaries and a fresh registry in tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		incidentsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_incidents_published_total",
				Help: "Incidents published to clients",
			},
			[]string{"tenant", "priority"},
		),
		statusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_incident_status_changes_total",
				Help: "Accepted incident status transitions",
			},
			[]string{"new_status", "actor_kind"},
		),
		transitionsDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_incident_transitions_denied_total",
				Help: "Rejected incident status transitions",
			},
			[]string{"actor_kind"},
		),
		commentsAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_incident_comments_total",
				Help: "Comments added to incidents",
			},
			[]string{"side"},
		),
		sourceStatusUpdates: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_source_status_updates_total",
				Help: "Log source health status changes persisted by reconciliation",
			},
		),
		slaSnapshots: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_sla_snapshots_total",
				Help: "SLA snapshots computed",
			},
		),
		siemRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_siem_requests_total",
				Help: "Upstream SIEM API requests by outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		outboxDelivered: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_outbox_delivered_total",
				Help: "Outbox events handed to the delivery sink",
			},
		),
		outboxFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_outbox_failed_total",
				Help: "Outbox events whose delivery failed",
			},
		),
	}
}

func (c *Collector) RecordPublish(tenantShortName string, priority core.Priority) {
	c.incidentsPublished.WithLabelValues(tenantShortName, string(priority)).Inc()
}

func (c *Collector) RecordStatusChange(newStatus core.IncidentStatus, kind core.ActorKind) {
	c.statusChanges.WithLabelValues(string(newStatus), string(kind)).Inc()
}

func (c *Collector) RecordTransitionDenied(kind core.ActorKind) {
	c.transitionsDenied.WithLabelValues(string(kind)).Inc()
}

func (c *Collector) RecordComment(isSOC bool) {
	side := "client"
	if isSOC {
		side = "soc"
	}
	c.commentsAdded.WithLabelValues(side).Inc()
}

func (c *Collector) RecordSourceUpdates(n int) {
	c.sourceStatusUpdates.Add(float64(n))
}

func (c *Collector) RecordSnapshot() {
	c.slaSnapshots.Inc()
}

func (c *Collector) RecordSIEMRequest(endpoint, outcome string) {
	c.siemRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (c *Collector) RecordOutbox(delivered bool) {
	if delivered {
		c.outboxDelivered.Inc()
	} else {
		c.outboxFailed.Inc()
	}
}
