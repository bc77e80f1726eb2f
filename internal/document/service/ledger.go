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

// Ledger records approval decisions and drives the resulting document
// transition. A decision and its status change commit together.
type Ledger struct {
	store     repository.Store
	lifecycle *Lifecycle
	opts      options
}

func NewLedger(store repository.Store, lifecycle *Lifecycle, opts ...Option) *Ledger {
	return &Ledger{store: store, lifecycle: lifecycle, opts: buildOptions(opts)}
}

// Decide records approver's decision on a pending document. Preconditions
// are checked in order: role, existence, pending status, not the creator,
// no earlier decision by the same approver.
func (l *Ledger) Decide(ctx context.Context, documentID string, action document.Action, comment *string, approver models.Actor) (*document.Approval, error) {
	if !access.Can(approver.Role, access.Decide) {
		return nil, failed("decide", ierr.NewError("role may not decide").
			WithHint("Only approvers and admins can approve/reject documents").
			Mark(ierr.ErrForbidden))
	}
	if !action.Valid() {
		return nil, failed("decide", ierr.NewError("unknown action "+string(action)).
			WithHint("action must be approved or rejected").
			Mark(ierr.ErrValidation))
	}

	var out *document.Approval
	var decided *document.Document
	err := l.store.WithDocument(ctx, documentID, func(ctx context.Context, tx repository.Tx, doc *document.Document) error {
		if doc.Status != document.StatusPending {
			return ierr.NewError("only pending documents can be decided").
				WithHint("Only documents in PENDING status can be approved/rejected").
				Mark(ierr.ErrInvalidState)
		}
		if doc.CreatorID == approver.ID {
			return ierr.NewError("self-approval forbidden").
				WithHint("You cannot approve your own document").
				Mark(ierr.ErrInvalidState)
		}
		existing, err := tx.FindApproval(ctx, doc.ID, approver.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ierr.NewError("duplicate decision forbidden").
				WithHint("You have already approved/rejected this document").
				Mark(ierr.ErrInvalidState)
		}

		a := &document.Approval{
			ID:         l.opts.newID(),
			DocumentID: doc.ID,
			ApproverID: approver.ID,
			Action:     action,
			Comment:    comment,
			CreatedAt:  l.opts.now(),
		}
		if err := tx.InsertApproval(ctx, a); err != nil {
			return err
		}
		d, err := l.lifecycle.ApplyDecisionOutcome(ctx, tx, doc, action)
		if err != nil {
			return err
		}
		out, decided = a, d
		return nil
	})
	if err != nil {
		return nil, failed("decide", err)
	}

	metrics.Decisions.WithLabelValues(string(action)).Inc()
	metrics.StatusTransitions.WithLabelValues(string(document.StatusPending), string(decided.Status)).Inc()
	logger.Infof("document %s %s by %s", documentID, action, approver.ID)
	l.afterDecision(ctx, decided, out)
	return out, nil
}

// afterDecision runs the post-commit side effects. They are best effort:
// the decision is already durable, so failures are logged only.
func (l *Ledger) afterDecision(ctx context.Context, doc *document.Document, a *document.Approval) {
	if l.opts.cache != nil {
		if err := l.opts.cache.Invalidate(ctx, a.ApproverID); err != nil {
			logger.Warnf("stats cache invalidate for %s: %v", a.ApproverID, err)
		}
	}
	if l.opts.archiver != nil && a.Action == document.ActionApproved {
		if err := l.opts.archiver.ArchiveDecision(ctx, doc, a); err != nil {
			logger.Warnf("archive approved document %s: %v", doc.ID, err)
		}
	}
}

// Get returns one approval.
func (l *Ledger) Get(ctx context.Context, id string) (*document.Approval, error) {
	a, err := l.store.GetApproval(ctx, id)
	if err != nil {
		return nil, failed("get_approval", err)
	}
	return a, nil
}

// List returns approvals matching f, newest first.
func (l *Ledger) List(ctx context.Context, f document.ApprovalFilter) ([]*document.Approval, error) {
	out, err := l.store.ListApprovals(ctx, f)
	if err != nil {
		return nil, failed("list_approvals", err)
	}
	return out, nil
}

func (l *Ledger) ListByDocument(ctx context.Context, documentID string) ([]*document.Approval, error) {
	return l.List(ctx, document.ApprovalFilter{DocumentID: documentID})
}

func (l *Ledger) ListByApprover(ctx context.Context, approverID string) ([]*document.Approval, error) {
	return l.List(ctx, document.ApprovalFilter{ApproverID: approverID})
}

// Stats aggregates decisions of approverID, or of everyone when it is empty.
func (l *Ledger) Stats(ctx context.Context, approverID string) (document.Stats, error) {
	fill := false
	var gen int64
	if l.opts.cache != nil {
		s, g, ok, err := l.opts.cache.Get(ctx, approverID)
		switch {
		case err != nil:
			logger.Warnf("stats cache get: %v", err)
		case ok:
			metrics.StatsCacheLookups.WithLabelValues("hit").Inc()
			return s, nil
		default:
			metrics.StatsCacheLookups.WithLabelValues("miss").Inc()
			fill, gen = true, g
		}
	}
	s, err := l.store.CountApprovals(ctx, approverID)
	if err != nil {
		return s, failed("stats", err)
	}
	if fill {
		if err := l.opts.cache.Set(ctx, approverID, gen, s); err != nil {
			logger.Warnf("stats cache set: %v", err)
		}
	}
	return s, nil
}
