package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docflow/review-service/internal/document"
	ierr "github.com/docflow/review-service/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

const documentColumns = "id, title, content, status, creator_id, version, created_at, updated_at"
const approvalColumns = "id, document_id, approver_id, action, comment, created_at"

// PostgresRepo implements Store on PostgreSQL. WithDocument takes a row lock
// with SELECT ... FOR UPDATE; the (document_id, approver_id) pair is a UNIQUE
// constraint and approvals cascade on document delete (see database.PostgresSchema).
type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (s *PostgresRepo) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return pgError("ping", err)
	}
	return nil
}

func (s *PostgresRepo) CreateDocument(ctx context.Context, d *document.Document) error {
	d.Version = 1
	_, err := s.db.Exec(ctx,
		"INSERT INTO documents ("+documentColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		d.ID, d.Title, d.Content, string(d.Status), d.CreatorID, d.Version, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return pgError("insert document", err)
	}
	return nil
}

func (s *PostgresRepo) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	row := s.db.QueryRow(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = $1", id)
	d, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *PostgresRepo) ListDocuments(ctx context.Context, f document.Filter) ([]*document.Document, error) {
	where, args := []string{}, []any{}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.CreatorID != "" {
		args = append(args, f.CreatorID)
		where = append(where, fmt.Sprintf("creator_id = $%d", len(args)))
	}
	q := "SELECT " + documentColumns + " FROM documents"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, pgError("list documents", err)
	}
	defer rows.Close()

	out := []*document.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("list documents", err)
	}
	return out, nil
}

func (s *PostgresRepo) GetApproval(ctx context.Context, id string) (*document.Approval, error) {
	row := s.db.QueryRow(ctx, "SELECT "+approvalColumns+" FROM approvals WHERE id = $1", id)
	a, err := scanApproval(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrApprovalNotFound
	}
	if err != nil {
		return nil, pgError("get approval", err)
	}
	return a, nil
}

func (s *PostgresRepo) ListApprovals(ctx context.Context, f document.ApprovalFilter) ([]*document.Approval, error) {
	where, args := []string{}, []any{}
	if f.DocumentID != "" {
		args = append(args, f.DocumentID)
		where = append(where, fmt.Sprintf("document_id = $%d", len(args)))
	}
	if f.ApproverID != "" {
		args = append(args, f.ApproverID)
		where = append(where, fmt.Sprintf("approver_id = $%d", len(args)))
	}
	if f.Action != "" {
		args = append(args, string(f.Action))
		where = append(where, fmt.Sprintf("action = $%d", len(args)))
	}
	q := "SELECT " + approvalColumns + " FROM approvals"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, pgError("list approvals", err)
	}
	defer rows.Close()

	out := []*document.Approval{}
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, pgError("scan approval", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("list approvals", err)
	}
	return out, nil
}

func (s *PostgresRepo) CountApprovals(ctx context.Context, approverID string) (document.Stats, error) {
	var st document.Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE action = 'approved'),
			COUNT(*) FILTER (WHERE action = 'rejected')
		FROM approvals
		WHERE $1::text = '' OR approver_id = $1`, approverID).Scan(&st.Approved, &st.Rejected)
	if err != nil {
		return st, pgError("count approvals", err)
	}
	st.Total = st.Approved + st.Rejected
	return st, nil
}

func (s *PostgresRepo) WithDocument(ctx context.Context, id string, fn func(ctx context.Context, tx Tx, doc *document.Document) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return pgError("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = $1 FOR UPDATE", id)
	doc, err := scanDocument(row)
	if err != nil {
		return err
	}
	if err := fn(ctx, &pgTx{tx: tx}, doc); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return pgError("commit", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) SaveDocument(ctx context.Context, doc *document.Document) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE documents SET title = $2, content = $3, status = $4, updated_at = $5, version = version + 1
		WHERE id = $1`,
		doc.ID, doc.Title, doc.Content, string(doc.Status), doc.UpdatedAt)
	if err != nil {
		return pgError("update document", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	doc.Version++
	return nil
}

func (t *pgTx) DeleteDocument(ctx context.Context, id string) error {
	// approvals go with the FK's ON DELETE CASCADE
	tag, err := t.tx.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return pgError("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) FindApproval(ctx context.Context, documentID, approverID string) (*document.Approval, error) {
	row := t.tx.QueryRow(ctx,
		"SELECT "+approvalColumns+" FROM approvals WHERE document_id = $1 AND approver_id = $2",
		documentID, approverID)
	a, err := scanApproval(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pgError("find approval", err)
	}
	return a, nil
}

func (t *pgTx) InsertApproval(ctx context.Context, a *document.Approval) error {
	_, err := t.tx.Exec(ctx,
		"INSERT INTO approvals ("+approvalColumns+") VALUES ($1, $2, $3, $4, $5, $6)",
		a.ID, a.DocumentID, a.ApproverID, string(a.Action), a.Comment, a.CreatedAt)
	if err != nil {
		return pgError("insert approval", err)
	}
	return nil
}

func scanDocument(row pgx.Row) (*document.Document, error) {
	var d document.Document
	var status string
	err := row.Scan(&d.ID, &d.Title, &d.Content, &status, &d.CreatorID, &d.Version, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, pgError("scan document", err)
	}
	d.Status = document.Status(status)
	return &d, nil
}

func scanApproval(row pgx.Row) (*document.Approval, error) {
	var a document.Approval
	var action string
	if err := row.Scan(&a.ID, &a.DocumentID, &a.ApproverID, &action, &a.Comment, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Action = document.Action(action)
	return &a, nil
}

// pgError classifies a driver error: constraint and serialization failures
// become Conflict, everything else Unavailable.
func pgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == "uq_approvals_document_approver" {
				return ErrDuplicateDecision
			}
			return ierr.WithError(err).WithMessage(op).WithHint("Conflicting write, retry the request").Mark(ierr.ErrConflict)
		case pgSerializationFailure, pgDeadlockDetected:
			return ierr.WithError(err).WithMessage(op).WithHint("Conflicting write, retry the request").Mark(ierr.ErrConflict)
		}
	}
	return ierr.WithError(err).WithMessage(op).WithHint("Storage temporarily unavailable").Mark(ierr.ErrUnavailable)
}
