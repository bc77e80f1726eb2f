package service

import (
	"context"
	"time"

	"github.com/docflow/review-service/internal/document"
	"github.com/google/uuid"
)

// StatsCache caches approval aggregates. The empty approver id is the key
// for the all-approvers aggregate. Get reports the generation it looked at;
// Set only fills that generation, so a fill racing an Invalidate is never
// served afterwards.
type StatsCache interface {
	Get(ctx context.Context, approverID string) (s document.Stats, gen int64, ok bool, err error)
	Set(ctx context.Context, approverID string, gen int64, s document.Stats) error
	// Invalidate retires the approver's entry and the all-approvers entry.
	Invalidate(ctx context.Context, approverID string) error
}

// Archiver receives a copy of every approved document after the decision
// has been committed.
type Archiver interface {
	ArchiveDecision(ctx context.Context, doc *document.Document, a *document.Approval) error
}

type options struct {
	now      func() time.Time
	newID    func() string
	cache    StatsCache
	archiver Archiver
}

// Option configures Lifecycle and Ledger.
type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

func WithStatsCache(c StatsCache) Option {
	return func(o *options) { o.cache = c }
}

func WithArchiver(a Archiver) Option {
	return func(o *options) { o.archiver = a }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
