package handler

import (
	"context"

	"github.com/docflow/review-service/internal/document"
	"github.com/docflow/review-service/internal/models"
	"github.com/docflow/review-service/pkg/logger"
	"github.com/samber/lo"
)

// ProfileResolver looks up the profiles of actors by id.
type ProfileResolver interface {
	Resolve(ctx context.Context, ids ...string) (map[string]*models.User, error)
}

// profiles never fails a response: without a resolver, or when the lookup
// errors, views carry the bare ids.
func (h *Handler) profiles(ctx context.Context, ids ...string) map[string]*models.User {
	if h.resolver == nil {
		return nil
	}
	out, err := h.resolver.Resolve(ctx, ids...)
	if err != nil {
		logger.Warnf("resolve profiles: %v", err)
		return nil
	}
	return out
}

func (h *Handler) documentView(ctx context.Context, d *document.Document) documentView {
	return toDocumentView(d, h.profiles(ctx, d.CreatorID))
}

func (h *Handler) documentViews(ctx context.Context, list []*document.Document) []documentView {
	profiles := h.profiles(ctx, lo.Map(list, func(d *document.Document, _ int) string { return d.CreatorID })...)
	return lo.Map(list, func(d *document.Document, _ int) documentView { return toDocumentView(d, profiles) })
}

// documentWithApprovals embeds the decisions on d, newest first. Their
// document summary is left out since it would repeat d.
func (h *Handler) documentWithApprovals(ctx context.Context, d *document.Document, approvals []*document.Approval) documentView {
	ids := append(lo.Map(approvals, func(a *document.Approval, _ int) string { return a.ApproverID }), d.CreatorID)
	profiles := h.profiles(ctx, ids...)
	view := toDocumentView(d, profiles)
	view.Approvals = lo.Map(approvals, func(a *document.Approval, _ int) approvalView {
		return toApprovalView(a, profiles, nil)
	})
	return view
}

func (h *Handler) approvalView(ctx context.Context, a *document.Approval) approvalView {
	return h.approvalViews(ctx, []*document.Approval{a})[0]
}

// approvalViews joins each decision with its approver and a summary of the
// decided document.
func (h *Handler) approvalViews(ctx context.Context, list []*document.Approval) []approvalView {
	profiles := h.profiles(ctx, lo.Map(list, func(a *document.Approval, _ int) string { return a.ApproverID })...)
	docs := map[string]*document.Document{}
	for _, id := range lo.Uniq(lo.Map(list, func(a *document.Approval, _ int) string { return a.DocumentID })) {
		d, err := h.lifecycle.Get(ctx, id)
		if err != nil {
			// deleted between the two reads; leave the summary out
			logger.Debugf("approval document %s: %v", id, err)
			continue
		}
		docs[id] = d
	}
	return lo.Map(list, func(a *document.Approval, _ int) approvalView { return toApprovalView(a, profiles, docs) })
}
