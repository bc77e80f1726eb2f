package document

import (
	ierr "github.com/docflow/review-service/internal/errors"
)

// Event drives a status transition.
type Event string

const (
	EventSubmit  Event = "submit"
	EventApprove Event = "approve"
	EventReject  Event = "reject"
)

// transitions is the whole review state machine. Approved has no outgoing
// edge; Rejected may be resubmitted.
var transitions = map[Status]map[Event]Status{
	StatusDraft:    {EventSubmit: StatusPending},
	StatusRejected: {EventSubmit: StatusPending},
	StatusPending:  {EventApprove: StatusApproved, EventReject: StatusRejected},
}

var transitionHints = map[Event]string{
	EventSubmit:  "Only DRAFT or REJECTED documents can be submitted for approval",
	EventApprove: "only pending documents can be decided",
	EventReject:  "only pending documents can be decided",
}

// Transition returns the status reached from `from` on ev, or an
// InvalidState error when the edge does not exist.
func Transition(from Status, ev Event) (Status, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	hint, ok := transitionHints[ev]
	if !ok {
		hint = "unknown workflow event"
	}
	return from, ierr.NewError("no transition " + string(ev) + " from " + string(from)).
		WithHint(hint).
		Mark(ierr.ErrInvalidState)
}

// CanTransition reports whether ev is allowed from `from`.
func CanTransition(from Status, ev Event) bool {
	_, ok := transitions[from][ev]
	return ok
}

// DecisionEvent maps an approval action onto its workflow event.
func DecisionEvent(a Action) Event {
	if a == ActionApproved {
		return EventApprove
	}
	return EventReject
}

// Locked reports whether non-admin edits are blocked in status s.
func Locked(s Status) bool {
	return s == StatusPending || s == StatusApproved
}
