package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"seva/pkg/platform/sentinel"
)

// InMemoryStore keeps applications in a map for tests and database-free runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	apps map[string]Application
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{apps: make(map[string]Application)}
}

func (s *InMemoryStore) Create(_ context.Context, app Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrConflict
	}
	// Mirrors the partial unique index on (user_id, scheme_id) in postgres.
	for _, existing := range s.apps {
		if existing.UserID == app.UserID && existing.SchemeID == app.SchemeID && existing.Status != StatusRejected {
			return sentinel.ErrConflict
		}
	}
	s.apps[app.ID] = app
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return Application{}, sentinel.ErrNotFound
	}
	return app, nil
}

func (s *InMemoryStore) FindActiveByUserAndScheme(_ context.Context, userID, schemeID string) (Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, app := range s.apps {
		if app.UserID == userID && app.SchemeID == schemeID && app.Status != StatusRejected {
			return app, nil
		}
	}
	return Application{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Application
	for _, app := range s.apps {
		if app.UserID == userID {
			out = append(out, app)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Application, 0, len(s.apps))
	for _, app := range s.apps {
		out = append(out, app)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id string, status Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	app.Status = status
	app.UpdatedAt = at
	s.apps[id] = app
	return nil
}

func sortNewestFirst(apps []Application) {
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].CreatedAt.After(apps[j].CreatedAt)
		}
		return apps[i].ID < apps[j].ID
	})
}
