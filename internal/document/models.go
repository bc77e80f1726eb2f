package document

import "time"

// Status is the review state of a document.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the four known states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Document is the persistent document model. Version is bumped on every
// write and is owned by the stores.
type Document struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	Status    Status    `json:"status" bson:"status"`
	CreatorID string    `json:"creatorId" bson:"creatorId"`
	Version   int64     `json:"-" bson:"version"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a copy that can be mutated without touching stored state.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// Patch lists the fields a caller may change on an existing document.
// Nil fields are left untouched.
type Patch struct {
	Title   *string
	Content *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil
}

// ApplyTo copies the set fields onto d and reports whether anything changed.
func (p Patch) ApplyTo(d *Document) bool {
	changed := false
	if p.Title != nil && *p.Title != d.Title {
		d.Title = *p.Title
		changed = true
	}
	if p.Content != nil && *p.Content != d.Content {
		d.Content = *p.Content
		changed = true
	}
	return changed
}

// Filter narrows document listings. Zero values match everything.
type Filter struct {
	Status    Status
	CreatorID string
}

// Match reports whether d passes the filter.
func (f Filter) Match(d *Document) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.CreatorID != "" && d.CreatorID != f.CreatorID {
		return false
	}
	return true
}
