package repository

import (
	"context"

	"github.com/docflow/review-service/internal/document"
	ierr "github.com/docflow/review-service/internal/errors"
)

var (
	ErrNotFound         = ierr.NewError("document not found").WithHint("Document not found").Mark(ierr.ErrNotFound)
	ErrApprovalNotFound = ierr.NewError("approval not found").WithHint("Approval not found").Mark(ierr.ErrNotFound)
)

// ErrDuplicateDecision is returned when the (document, approver) uniqueness
// constraint rejects a write.
var ErrDuplicateDecision = ierr.NewError("approval for document/approver pair already exists").
	WithHint("You have already approved/rejected this document").
	Mark(ierr.ErrConflict)

// Store is the persistence boundary of the review workflow. Reads outside
// WithDocument see committed state only.
type Store interface {
	CreateDocument(ctx context.Context, d *document.Document) error
	GetDocument(ctx context.Context, id string) (*document.Document, error)
	// ListDocuments returns matching documents newest first.
	ListDocuments(ctx context.Context, f document.Filter) ([]*document.Document, error)

	GetApproval(ctx context.Context, id string) (*document.Approval, error)
	// ListApprovals returns matching approvals newest first.
	ListApprovals(ctx context.Context, f document.ApprovalFilter) ([]*document.Approval, error)
	// CountApprovals aggregates decisions, scoped to one approver when approverID is set.
	CountApprovals(ctx context.Context, approverID string) (document.Stats, error)

	// WithDocument runs fn while holding an exclusive lock on document id.
	// doc is a private copy of the committed row; writes go through tx and
	// become visible together when fn returns nil. Any error from fn rolls
	// everything back and is returned unchanged. A missing document yields
	// ErrNotFound without calling fn.
	WithDocument(ctx context.Context, id string, fn func(ctx context.Context, tx Tx, doc *document.Document) error) error

	Ping(ctx context.Context) error
}

// Tx is the write side of a WithDocument scope.
type Tx interface {
	// SaveDocument persists doc's mutable fields and bumps its version.
	SaveDocument(ctx context.Context, doc *document.Document) error
	// DeleteDocument removes the locked document and all of its approvals.
	DeleteDocument(ctx context.Context, id string) error
	// FindApproval returns the decision of approverID on documentID, or nil.
	FindApproval(ctx context.Context, documentID, approverID string) (*document.Approval, error)
	// InsertApproval appends a decision; a second decision for the same
	// (document, approver) pair fails with ErrDuplicateDecision.
	InsertApproval(ctx context.Context, a *document.Approval) error
}
