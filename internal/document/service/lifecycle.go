package service

import (
	"context"

	"github.com/docflow/review-service/internal/access"
	"github.com/docflow/review-service/internal/document"
	"github.com/docflow/review-service/internal/document/repository"
	ierr "github.com/docflow/review-service/internal/errors"
	"github.com/docflow/review-service/internal/models"
	"github.com/docflow/review-service/pkg/logger"
	"github.com/docflow/review-service/pkg/metrics"
)

// Lifecycle owns document creation, edits, deletion and status changes.
type Lifecycle struct {
	store repository.Store
	opts  options
}

func NewLifecycle(store repository.Store, opts ...Option) *Lifecycle {
	return &Lifecycle{store: store, opts: buildOptions(opts)}
}

// Create stores a new draft authored by creatorID.
func (l *Lifecycle) Create(ctx context.Context, title, content, creatorID string) (*document.Document, error) {
	if creatorID == "" {
		return nil, ierr.NewError("create without creator").WithHint("Authenticated user required").Mark(ierr.ErrValidation)
	}
	now := l.opts.now()
	d := &document.Document{
		ID:        l.opts.newID(),
		Title:     title,
		Content:   content,
		Status:    document.StatusDraft,
		CreatorID: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.store.CreateDocument(ctx, d); err != nil {
		return nil, failed("create", err)
	}
	logger.Debugf("document %s created by %s", d.ID, creatorID)
	return d, nil
}

func (l *Lifecycle) Get(ctx context.Context, id string) (*document.Document, error) {
	d, err := l.store.GetDocument(ctx, id)
	if err != nil {
		return nil, failed("get", err)
	}
	return d, nil
}

// List returns documents matching f, newest first.
func (l *Lifecycle) List(ctx context.Context, f document.Filter) ([]*document.Document, error) {
	out, err := l.store.ListDocuments(ctx, f)
	if err != nil {
		return nil, failed("list", err)
	}
	return out, nil
}

// ListMine returns the documents authored by actorID, newest first.
func (l *Lifecycle) ListMine(ctx context.Context, actorID string) ([]*document.Document, error) {
	return l.List(ctx, document.Filter{CreatorID: actorID})
}

// Update applies the whitelisted fields of patch. Status is never touched.
func (l *Lifecycle) Update(ctx context.Context, id string, patch document.Patch, actor models.Actor) (*document.Document, error) {
	var out *document.Document
	err := l.store.WithDocument(ctx, id, func(ctx context.Context, tx repository.Tx, doc *document.Document) error {
		if err := checkOwner(doc, actor, "You can only update your own documents"); err != nil {
			return err
		}
		if document.Locked(doc.Status) && !access.Can(actor.Role, access.EditLocked) {
			hint := "Cannot update document while in PENDING status"
			if doc.Status == document.StatusApproved {
				hint = "Cannot update approved document"
			}
			return ierr.NewError("update of locked document").WithHint(hint).Mark(ierr.ErrInvalidState)
		}
		patch.ApplyTo(doc)
		doc.UpdatedAt = l.opts.now()
		if err := tx.SaveDocument(ctx, doc); err != nil {
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, failed("update", err)
	}
	logger.Debugf("document %s updated by %s (%s)", id, actor.ID, actor.Role)
	return out, nil
}

// Delete removes the document together with its approvals.
func (l *Lifecycle) Delete(ctx context.Context, id string, actor models.Actor) error {
	err := l.store.WithDocument(ctx, id, func(ctx context.Context, tx repository.Tx, doc *document.Document) error {
		if err := checkOwner(doc, actor, "You can only delete your own documents"); err != nil {
			return err
		}
		if doc.Status == document.StatusApproved && !access.Can(actor.Role, access.DeleteApproved) {
			return ierr.NewError("delete of approved document").
				WithHint("Cannot delete approved document").
				Mark(ierr.ErrInvalidState)
		}
		return tx.DeleteDocument(ctx, doc.ID)
	})
	if err != nil {
		return failed("delete", err)
	}
	logger.Infof("document %s deleted by %s (%s)", id, actor.ID, actor.Role)
	return nil
}

// Submit moves a draft or rejected document to pending. Only the creator
// may submit; there is no admin override.
func (l *Lifecycle) Submit(ctx context.Context, id, actorID string) (*document.Document, error) {
	var out *document.Document
	var from document.Status
	err := l.store.WithDocument(ctx, id, func(ctx context.Context, tx repository.Tx, doc *document.Document) error {
		if doc.CreatorID != actorID {
			return ierr.NewError("submit by non-creator").
				WithHint("You can only submit your own documents for approval").
				Mark(ierr.ErrForbidden)
		}
		to, err := document.Transition(doc.Status, document.EventSubmit)
		if err != nil {
			return err
		}
		from = doc.Status
		doc.Status = to
		doc.UpdatedAt = l.opts.now()
		if err := tx.SaveDocument(ctx, doc); err != nil {
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, failed("submit", err)
	}
	metrics.StatusTransitions.WithLabelValues(string(from), string(out.Status)).Inc()
	logger.Infof("document %s submitted for approval (%s -> %s)", id, from, out.Status)
	return out, nil
}

// ApplyDecisionOutcome moves doc to the terminal status for action. It only
// runs inside the ledger's WithDocument scope, after the approval row was
// written, so both commit together.
func (l *Lifecycle) ApplyDecisionOutcome(ctx context.Context, tx repository.Tx, doc *document.Document, action document.Action) (*document.Document, error) {
	to, err := document.Transition(doc.Status, document.DecisionEvent(action))
	if err != nil {
		return nil, err
	}
	doc.Status = to
	doc.UpdatedAt = l.opts.now()
	if err := tx.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func checkOwner(doc *document.Document, actor models.Actor, hint string) error {
	if doc.CreatorID == actor.ID || access.Can(actor.Role, access.OverrideOwnership) {
		return nil
	}
	return ierr.NewError("actor is not the creator").WithHint(hint).Mark(ierr.ErrForbidden)
}

// failed records the failure class of a workflow operation and passes err through.
func failed(op string, err error) error {
	metrics.OperationFailures.WithLabelValues(op, ierr.CodeFromErr(err)).Inc()
	if ierr.CodeFromErr(err) == ierr.ErrCodeUnavailable || ierr.CodeFromErr(err) == ierr.ErrCodeInternal {
		logger.Errorf("%s: %v", op, err)
	}
	return err
}
