// Package lifecycle validates status transitions for maintenance
// requests.  The transition table is the single source of truth: any
// attempt outside it fails with InvalidTransitionError and the caller
// must not apply a partial update.  Requesting the current status again
// is a no-op, not an error.
package lifecycle

import (
    "fmt"

    "github.com/Ioioiog/dashboardly/internal/model"
)

// InvalidTransitionError identifies both the current and the requested
// status so the rejection can be surfaced verbatim to the caller.
type InvalidTransitionError struct {
    From   string
    To     string
    Reason string
}

func (e *InvalidTransitionError) Error() string {
    if e.Reason != "" {
        return fmt.Sprintf("invalid transition from %q to %q: %s", e.From, e.To, e.Reason)
    }
    return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

// transition is one row of the table: who may trigger it and an optional
// guard evaluated against the request.
type transition struct {
    actors map[string]bool
    guard  func(r *model.MaintenanceRequest) string // non-empty return = guard failure reason
}

type edge struct{ from, to string }

var table = map[edge]transition{
    {model.StatusPending, model.StatusInProgress}: {
        actors: roles(model.RoleLandlord),
        // Work starts either because a contractor has been assigned or
        // because the landlord explicitly starts it; both arrive here,
        // so there is no additional guard.
    },
    {model.StatusPending, model.StatusCancelled}: {
        actors: roles(model.RoleLandlord, model.RoleTenant),
    },
    {model.StatusInProgress, model.StatusCompleted}: {
        actors: roles(model.RoleLandlord),
        guard: func(r *model.MaintenanceRequest) string {
            if r.CompletionReport == nil || *r.CompletionReport == "" {
                return "completion_report is empty"
            }
            return ""
        },
    },
    {model.StatusInProgress, model.StatusCancelled}: {
        actors: roles(model.RoleLandlord),
    },
}

func roles(rs ...string) map[string]bool {
    m := make(map[string]bool, len(rs))
    for _, r := range rs {
        m[r] = true
    }
    return m
}

// Check validates a requested transition without applying it.  It
// returns (false, nil) for the idempotent case (requested status equals
// current status), (true, nil) when the transition is allowed, and an
// *InvalidTransitionError otherwise.
func Check(r *model.MaintenanceRequest, to string, actorRole string) (apply bool, err error) {
    if !model.ValidStatus(to) {
        return false, &InvalidTransitionError{From: r.Status, To: to, Reason: "unknown status"}
    }
    if to == r.Status {
        return false, nil
    }
    if r.Terminal() {
        return false, &InvalidTransitionError{From: r.Status, To: to, Reason: "status is terminal"}
    }
    t, ok := table[edge{r.Status, to}]
    if !ok {
        return false, &InvalidTransitionError{From: r.Status, To: to}
    }
    if !t.actors[actorRole] {
        return false, &InvalidTransitionError{From: r.Status, To: to, Reason: fmt.Sprintf("role %s may not trigger it", actorRole)}
    }
    if t.guard != nil {
        if reason := t.guard(r); reason != "" {
            return false, &InvalidTransitionError{From: r.Status, To: to, Reason: reason}
        }
    }
    return true, nil
}
