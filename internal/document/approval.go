package document

import "time"

// Action is the outcome an approver records.
type Action string

const (
	ActionApproved Action = "approved"
	ActionRejected Action = "rejected"
)

func (a Action) Valid() bool {
	return a == ActionApproved || a == ActionRejected
}

// Approval is an immutable decision record. At most one exists per
// (DocumentID, ApproverID).
type Approval struct {
	ID         string    `json:"id" bson:"_id"`
	DocumentID string    `json:"documentId" bson:"documentId"`
	ApproverID string    `json:"approverId" bson:"approverId"`
	Action     Action    `json:"action" bson:"action"`
	Comment    *string   `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// ApprovalFilter narrows approval listings. Zero values match everything.
type ApprovalFilter struct {
	DocumentID string
	ApproverID string
	Action     Action
}

func (f ApprovalFilter) Match(a *Approval) bool {
	if f.DocumentID != "" && a.DocumentID != f.DocumentID {
		return false
	}
	if f.ApproverID != "" && a.ApproverID != f.ApproverID {
		return false
	}
	if f.Action != "" && a.Action != f.Action {
		return false
	}
	return true
}

// Stats aggregates decisions.
type Stats struct {
	Total    int64 `json:"total"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// Add counts one decision.
func (s *Stats) Add(a Action) {
	switch a {
	case ActionApproved:
		s.Approved++
	case ActionRejected:
		s.Rejected++
	default:
		return
	}
	s.Total++
}
