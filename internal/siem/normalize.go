package siem

import (
	"fmt"
	"time"

	"github.com/soclink/soclink/internal/core"
)

// Upstream status vocabulary → portal status. Unknown values fall back
// to "new" rather than failing the import.
var statusMap = map[string]core.IncidentStatus{
	"assigned":  core.StatusNew,
	"in_work":   core.StatusInProgress,
	"escalated": core.StatusInProgress,
	"suspended": core.StatusAwaitingCustomer,
	"resolved":  core.StatusResolved,
	"reopen":    core.StatusInProgress,
}

// Upstream numeric priority → portal priority. Unknown codes fall back
// to the lowest priority.
var priorityMap = map[int]core.Priority{
	1: core.PriorityCritical,
	2: core.PriorityHigh,
	3: core.PriorityMedium,
	4: core.PriorityLow,
}

// NormalizedIncident is the narrow type the adapter guarantees to produce.
// All "might be missing / might be a different shape" handling is confined
// to Normalize; nothing downstream touches raw upstream shapes.
type NormalizedIncident struct {
	ExternalID        int64
	Title             string
	Description       *string
	Priority          core.Priority
	PriorityNum       int
	Category          *string
	MitreID           *string
	SourceIPs         []string
	SourceHostnames   []string
	EventSourceIPs    []string
	EventCount        int
	Symptoms          []string
	ExternalStatus    core.IncidentStatus
	ExternalCreatedAt *time.Time
	Raw               core.JSONB
}

// MapStatus converts an upstream status string to the portal enumeration.
func MapStatus(upstream string) core.IncidentStatus {
	if s, ok := statusMap[upstream]; ok {
		return s
	}
	return core.StatusNew
}

// MapPriority converts an upstream numeric priority code.
func MapPriority(code int) core.Priority {
	if p, ok := priorityMap[code]; ok {
		return p
	}
	return core.PriorityLow
}

// Normalize merges the incident summary and the fullinfo metadata into
// the adapter's guaranteed output shape.
func Normalize(incident, fullinfo map[string]interface{}) *NormalizedIncident {
	n := &NormalizedIncident{
		ExternalID:  asInt64(incident["id"]),
		Title:       asString(incident["name"]),
		Description: asStringPtr(incident["description"]),
		MitreID:     asStringPtr(incident["mitre_technique"]),
		EventCount:  int(asInt64(incident["count_events"])),
		Raw: core.JSONB{
			"incident": incident,
			"fullinfo": fullinfo,
		},
	}

	priorityNum := 4
	if v, ok := incident["priority"].(float64); ok {
		priorityNum = int(v)
	}
	n.Priority = MapPriority(priorityNum)
	n.PriorityNum = priorityNum
	n.ExternalStatus = MapStatus(asString(incident["status"]))

	if ts := asString(incident["created_at"]); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			n.ExternalCreatedAt = &t
		}
	}

	meta, _ := fullinfo["meta_values"].(map[string]interface{})
	n.SourceIPs = extractValues(meta["src_ip"])
	n.SourceHostnames = extractValues(meta["event_source_hostname"])
	n.EventSourceIPs = extractValues(meta["event_source_ip"])
	n.Symptoms = extractValues(meta["symptom_name"])
	if cats := extractValues(meta["symptom_category"]); len(cats) > 0 {
		n.Category = &cats[0]
	}

	return n
}

// extractValues flattens the upstream "field → [{value, count}]" shape
// into a plain string list, producing an empty list for anything
// missing or malformed.
func extractValues(field interface{}) []string {
	items, ok := field.([]interface{})
	if !ok {
		return []string{}
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case map[string]interface{}:
			if s := asString(v["value"]); s != "" {
				values = append(values, s)
			}
		case string:
			values = append(values, v)
		default:
			values = append(values, fmt.Sprintf("%v", v))
		}
	}
	return values
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asStringPtr(v interface{}) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
