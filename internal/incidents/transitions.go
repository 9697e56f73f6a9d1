package incidents

import (
	"fmt"

	"github.com/soclink/soclink/internal/core"
)

// Status transition tables. There is no single global table: which
// transitions are permitted depends on whether the acting user is SOC
// staff or a client user.
var clientTransitions = map[core.IncidentStatus][]core.IncidentStatus{
	core.StatusNew:              {core.StatusInProgress},
	core.StatusInProgress:       {core.StatusAwaitingSOC, core.StatusResolved},
	core.StatusAwaitingCustomer: {core.StatusInProgress},
	core.StatusResolved:         {core.StatusClosed},
}

var socTransitions = map[core.IncidentStatus][]core.IncidentStatus{
	core.StatusNew:              {core.StatusInProgress, core.StatusAwaitingCustomer, core.StatusFalsePositive},
	core.StatusInProgress:       {core.StatusAwaitingCustomer, core.StatusResolved, core.StatusFalsePositive},
	core.StatusAwaitingSOC:      {core.StatusInProgress, core.StatusAwaitingCustomer, core.StatusResolved, core.StatusFalsePositive},
	core.StatusAwaitingCustomer: {core.StatusInProgress, core.StatusFalsePositive},
	core.StatusResolved:         {core.StatusClosed, core.StatusInProgress, core.StatusFalsePositive},
}

// AllowedTransitions returns the transitions the given actor kind may
// request from the given status. The returned slice is never mutated.
func AllowedTransitions(kind core.ActorKind, from core.IncidentStatus) []core.IncidentStatus {
	if kind == core.ActorKindSOC {
		return socTransitions[from]
	}
	return clientTransitions[from]
}

// TransitionError reports a requested transition absent from the acting
// side's table, naming the current state and the allowed set so the
// caller can correct its request without a second round-trip.
type TransitionError struct {
	From    core.IncidentStatus
	To      core.IncidentStatus
	Allowed []core.IncidentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %q to %q, allowed: %v", e.From, e.To, e.Allowed)
}

// ValidateTransition checks the requested transition against the acting
// side's table. A transition not in the table is rejected, never coerced.
func ValidateTransition(kind core.ActorKind, from, to core.IncidentStatus) error {
	allowed := AllowedTransitions(kind, from)
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to, Allowed: allowed}
}
