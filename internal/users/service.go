// Package users remembers who the actors behind documents and decisions are,
// so responses can show names instead of bare subjects.
package users

import (
	"context"
	"sync"
	"time"

	"github.com/docflow/review-service/internal/models"
	"github.com/samber/lo"
)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
	now  func() time.Time
	// last profile written per id, so repeated requests skip the write
	seen sync.Map
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r, now: time.Now}
}

// UpsertFromActor records the profile carried by an authenticated actor.
// Actors without an id are ignored.
func (s *Service) UpsertFromActor(ctx context.Context, a models.Actor) (*models.User, error) {
	if a.ID == "" {
		return nil, nil
	}
	u := &models.User{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
	if prev, ok := s.seen.Load(a.ID); ok && prev.(models.Actor) == a {
		return u, nil
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Upsert(ctx, u); err != nil {
		return nil, err
	}
	s.seen.Store(a.ID, a)
	return u, nil
}

// Resolve looks up the profiles of ids. Empty and repeated ids are skipped;
// ids never seen are missing from the result.
func (s *Service) Resolve(ctx context.Context, ids ...string) (map[string]*models.User, error) {
	ids = lo.Uniq(lo.Compact(ids))
	return s.repo.GetMany(ctx, ids)
}
