package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docflow/review-service/internal/document"
	ierr "github.com/docflow/review-service/internal/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	newDoc := func(creator string, at time.Time) *document.Document {
		return &document.Document{
			ID:        uuid.NewString(),
			Title:     "Design Doc",
			Content:   "Full text of the design",
			Status:    document.StatusDraft,
			CreatorID: creator,
			CreatedAt: at,
			UpdatedAt: at,
		}
	}

	t.Run("create get list", func(t *testing.T) {
		s := newStore(t)
		older := newDoc("u1", base)
		newer := newDoc("u2", base.Add(time.Minute))
		require.NoError(t, s.CreateDocument(ctx, older))
		require.NoError(t, s.CreateDocument(ctx, newer))

		got, err := s.GetDocument(ctx, older.ID)
		require.NoError(t, err)
		require.Equal(t, "Design Doc", got.Title)
		require.Equal(t, document.StatusDraft, got.Status)
		require.Equal(t, int64(1), got.Version)

		list, err := s.ListDocuments(ctx, document.Filter{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, newer.ID, list[0].ID)

		mine, err := s.ListDocuments(ctx, document.Filter{CreatorID: "u1"})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		require.Equal(t, older.ID, mine[0].ID)

		_, err = s.GetDocument(ctx, uuid.NewString())
		require.True(t, ierr.IsNotFound(err))
	})

	t.Run("with document commits and rolls back", func(t *testing.T) {
		s := newStore(t)
		d := newDoc("u1", base)
		require.NoError(t, s.CreateDocument(ctx, d))

		err := s.WithDocument(ctx, d.ID, func(ctx context.Context, tx Tx, doc *document.Document) error {
			doc.Status = document.StatusPending
			return tx.SaveDocument(ctx, doc)
		})
		require.NoError(t, err)
		got, err := s.GetDocument(ctx, d.ID)
		require.NoError(t, err)
		require.Equal(t, document.StatusPending, got.Status)

		boom := fmt.Errorf("boom")
		err = s.WithDocument(ctx, d.ID, func(ctx context.Context, tx Tx, doc *document.Document) error {
			doc.Status = document.StatusApproved
			if err := tx.SaveDocument(ctx, doc); err != nil {
				return err
			}
			if err := tx.InsertApproval(ctx, &document.Approval{
				ID: uuid.NewString(), DocumentID: d.ID, ApproverID: "a1",
				Action: document.ActionApproved, CreatedAt: base,
			}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err = s.GetDocument(ctx, d.ID)
		require.NoError(t, err)
		require.Equal(t, document.StatusPending, got.Status)
		list, err := s.ListApprovals(ctx, document.ApprovalFilter{DocumentID: d.ID})
		require.NoError(t, err)
		require.Empty(t, list)

		err = s.WithDocument(ctx, uuid.NewString(), func(ctx context.Context, tx Tx, doc *document.Document) error {
			t.Fatal("fn must not run for a missing document")
			return nil
		})
		require.True(t, ierr.IsNotFound(err))
	})

	t.Run("approval pair is unique", func(t *testing.T) {
		s := newStore(t)
		d := newDoc("u1", base)
		require.NoError(t, s.CreateDocument(ctx, d))

		insert := func(approver string) error {
			return s.WithDocument(ctx, d.ID, func(ctx context.Context, tx Tx, doc *document.Document) error {
				return tx.InsertApproval(ctx, &document.Approval{
					ID: uuid.NewString(), DocumentID: d.ID, ApproverID: approver,
					Action: document.ActionRejected, CreatedAt: base,
				})
			})
		}
		require.NoError(t, insert("a1"))
		err := insert("a1")
		require.True(t, ierr.IsConflict(err), "got %v", err)
		require.NoError(t, insert("a2"))

		stats, err := s.CountApprovals(ctx, "")
		require.NoError(t, err)
		require.Equal(t, document.Stats{Total: 2, Rejected: 2}, stats)
		stats, err = s.CountApprovals(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, int64(1), stats.Total)
	})

	t.Run("delete cascades approvals", func(t *testing.T) {
		s := newStore(t)
		d := newDoc("u1", base)
		require.NoError(t, s.CreateDocument(ctx, d))
		approvalID := uuid.NewString()
		comment := "Looks good!"
		require.NoError(t, s.WithDocument(ctx, d.ID, func(ctx context.Context, tx Tx, doc *document.Document) error {
			return tx.InsertApproval(ctx, &document.Approval{
				ID: approvalID, DocumentID: d.ID, ApproverID: "a1",
				Action: document.ActionApproved, Comment: &comment, CreatedAt: base,
			})
		}))
		a, err := s.GetApproval(ctx, approvalID)
		require.NoError(t, err)
		require.NotNil(t, a.Comment)
		require.Equal(t, comment, *a.Comment)

		require.NoError(t, s.WithDocument(ctx, d.ID, func(ctx context.Context, tx Tx, doc *document.Document) error {
			return tx.DeleteDocument(ctx, doc.ID)
		}))
		_, err = s.GetDocument(ctx, d.ID)
		require.True(t, ierr.IsNotFound(err))
		_, err = s.GetApproval(ctx, approvalID)
		require.True(t, ierr.IsNotFound(err))
	})

	t.Run("with document serializes writers", func(t *testing.T) {
		s := newStore(t)
		d := newDoc("u1", base)
		require.NoError(t, s.CreateDocument(ctx, d))

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.WithDocument(ctx, d.ID, func(ctx context.Context, tx Tx, doc *document.Document) error {
					doc.Content = doc.Content + "."
					return tx.SaveDocument(ctx, doc)
				})
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}
		got, err := s.GetDocument(ctx, d.ID)
		require.NoError(t, err)
		require.Equal(t, "Full text of the design........", got.Content)
	})
}
