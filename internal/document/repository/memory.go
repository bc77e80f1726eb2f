package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/docflow/review-service/internal/document"
)

// MemoryRepo is the in-process Store used for local runs and unit tests.
// Per-document mutexes serialize WithDocument scopes; writes are staged and
// applied under the store lock on commit.
type MemoryRepo struct {
	mu        sync.RWMutex
	seq       int64
	docs      map[string]*memDoc
	approvals map[string]*memApproval
	pairs     map[pairKey]string // (documentID, approverID) -> approval id

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

type memDoc struct {
	doc *document.Document
	seq int64
}

type memApproval struct {
	a   *document.Approval
	seq int64
}

type pairKey struct {
	documentID string
	approverID string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:      make(map[string]*memDoc),
		approvals: make(map[string]*memApproval),
		pairs:     make(map[pairKey]string),
		locks:     make(map[string]*sync.Mutex),
	}
}

func (m *MemoryRepo) Ping(ctx context.Context) error { return nil }

func (m *MemoryRepo) CreateDocument(ctx context.Context, d *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c := d.Clone()
	c.Version = 1
	d.Version = 1
	m.docs[c.ID] = &memDoc{doc: c, seq: m.seq}
	return nil
}

func (m *MemoryRepo) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.docs[id]; ok {
		return d.doc.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ListDocuments(ctx context.Context, f document.Filter) ([]*document.Document, error) {
	m.mu.RLock()
	rows := make([]*memDoc, 0, len(m.docs))
	for _, d := range m.docs {
		if f.Match(d.doc) {
			rows = append(rows, d)
		}
	}
	m.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].doc.CreatedAt.Equal(rows[j].doc.CreatedAt) {
			return rows[i].doc.CreatedAt.After(rows[j].doc.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]*document.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.doc.Clone())
	}
	return out, nil
}

func (m *MemoryRepo) GetApproval(ctx context.Context, id string) (*document.Approval, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.approvals[id]; ok {
		c := *a.a
		return &c, nil
	}
	return nil, ErrApprovalNotFound
}

func (m *MemoryRepo) ListApprovals(ctx context.Context, f document.ApprovalFilter) ([]*document.Approval, error) {
	m.mu.RLock()
	rows := make([]*memApproval, 0)
	for _, a := range m.approvals {
		if f.Match(a.a) {
			rows = append(rows, a)
		}
	}
	m.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].a.CreatedAt.Equal(rows[j].a.CreatedAt) {
			return rows[i].a.CreatedAt.After(rows[j].a.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]*document.Approval, 0, len(rows))
	for _, r := range rows {
		c := *r.a
		out = append(out, &c)
	}
	return out, nil
}

func (m *MemoryRepo) CountApprovals(ctx context.Context, approverID string) (document.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var s document.Stats
	for _, a := range m.approvals {
		if approverID != "" && a.a.ApproverID != approverID {
			continue
		}
		s.Add(a.a.Action)
	}
	return s, nil
}

func (m *MemoryRepo) lockFor(id string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *MemoryRepo) WithDocument(ctx context.Context, id string, fn func(ctx context.Context, tx Tx, doc *document.Document) error) error {
	l := m.lockFor(id)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := m.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	tx := &memTx{repo: m, docID: id}
	if err := fn(ctx, tx, doc); err != nil {
		return err
	}
	return m.commit(tx)
}

func (m *MemoryRepo) commit(tx *memTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// the pair constraint is checked again against committed state
	for _, a := range tx.inserted {
		if _, dup := m.pairs[pairKey{a.DocumentID, a.ApproverID}]; dup {
			return ErrDuplicateDecision
		}
	}

	if tx.deleted {
		for key, aid := range m.pairs {
			if key.documentID == tx.docID {
				delete(m.approvals, aid)
				delete(m.pairs, key)
			}
		}
		delete(m.docs, tx.docID)
		m.locksMu.Lock()
		delete(m.locks, tx.docID)
		m.locksMu.Unlock()
		return nil
	}

	for _, a := range tx.inserted {
		m.seq++
		m.approvals[a.ID] = &memApproval{a: a, seq: m.seq}
		m.pairs[pairKey{a.DocumentID, a.ApproverID}] = a.ID
	}
	if tx.saved != nil {
		if cur, ok := m.docs[tx.docID]; ok {
			cur.doc = tx.saved
		}
	}
	return nil
}

// memTx stages the writes of one WithDocument scope.
type memTx struct {
	repo     *MemoryRepo
	docID    string
	saved    *document.Document
	deleted  bool
	inserted []*document.Approval
}

func (t *memTx) SaveDocument(ctx context.Context, doc *document.Document) error {
	if t.deleted || doc.ID != t.docID {
		return ErrNotFound
	}
	doc.Version++
	t.saved = doc.Clone()
	return nil
}

func (t *memTx) DeleteDocument(ctx context.Context, id string) error {
	if id != t.docID {
		return ErrNotFound
	}
	t.deleted = true
	t.saved = nil
	t.inserted = nil
	return nil
}

func (t *memTx) FindApproval(ctx context.Context, documentID, approverID string) (*document.Approval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, a := range t.inserted {
		if a.DocumentID == documentID && a.ApproverID == approverID {
			c := *a
			return &c, nil
		}
	}
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	if aid, ok := t.repo.pairs[pairKey{documentID, approverID}]; ok {
		c := *t.repo.approvals[aid].a
		return &c, nil
	}
	return nil, nil
}

func (t *memTx) InsertApproval(ctx context.Context, a *document.Approval) error {
	if a.DocumentID != t.docID || t.deleted {
		return ErrNotFound
	}
	existing, err := t.FindApproval(ctx, a.DocumentID, a.ApproverID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateDecision
	}
	c := *a
	t.inserted = append(t.inserted, &c)
	return nil
}
