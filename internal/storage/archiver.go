// Package storage archives approved documents to object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/docflow/review-service/internal/document"
)

// Uploader is the subset of MinIOStorage the archiver needs.
type Uploader interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// Snapshot is the archived record of an approved document.
type Snapshot struct {
	Document   *document.Document `json:"document"`
	Decision   *document.Approval `json:"decision"`
	ArchivedAt time.Time          `json:"archivedAt"`
}

// Archiver writes a JSON snapshot for every approved document under
// "<prefix><documentID>/<approvalID>.json".
type Archiver struct {
	up     Uploader
	prefix string
	now    func() time.Time
}

func NewArchiver(up Uploader, prefix string) *Archiver {
	if prefix == "" {
		prefix = "approved/"
	}
	return &Archiver{up: up, prefix: prefix, now: func() time.Time { return time.Now().UTC() }}
}

// Key returns the object key used for the snapshot of doc and a.
func (a *Archiver) Key(doc *document.Document, ap *document.Approval) string {
	return fmt.Sprintf("%s%s/%s.json", a.prefix, doc.ID, ap.ID)
}

// ArchiveDecision uploads the snapshot. Callers invoke it after commit.
func (a *Archiver) ArchiveDecision(ctx context.Context, doc *document.Document, ap *document.Approval) error {
	b, err := json.Marshal(Snapshot{Document: doc, Decision: ap, ArchivedAt: a.now()})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := a.up.UploadFile(ctx, a.Key(doc, ap), bytes.NewReader(b), int64(len(b)), "application/json"); err != nil {
		return fmt.Errorf("upload snapshot %s: %w", doc.ID, err)
	}
	return nil
}
