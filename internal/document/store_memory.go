package document

import (
	"context"
	"sort"
	"sync"
	"time"

	"seva/pkg/platform/sentinel"
)

type memoryKey struct {
	userID  string
	docType DocumentType
}

// InMemoryStore keeps records in a map keyed by (user, type). Used by unit
// tests and by deployments without a database.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[memoryKey]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[memoryKey]Record)}
}

func (s *InMemoryStore) Upsert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[memoryKey{rec.UserID, rec.Type}] = rec
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for k, rec := range s.records {
		if k.userID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

func (s *InMemoryStore) FindByUserAndType(_ context.Context, userID string, docType DocumentType) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[memoryKey{userID, docType}]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return rec, nil
}

func (s *InMemoryStore) SetStatus(_ context.Context, userID string, docType DocumentType, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memoryKey{userID, docType}
	rec, ok := s.records[k]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Status = status
	s.records[k] = rec
	return nil
}

func (s *InMemoryStore) ApplyResult(_ context.Context, userID string, docType DocumentType, result VerificationResult, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memoryKey{userID, docType}
	rec, ok := s.records[k]
	if !ok {
		return sentinel.ErrNotFound
	}
	if result.IsValid {
		rec.Status = StatusVerified
	} else {
		rec.Status = StatusFailed
	}
	rec.IsVerified = result.IsValid
	rec.ConfidenceScore = result.ConfidenceScore
	rec.VerificationErrors = result.Errors
	rec.VerifiedAt = &at
	s.records[k] = rec
	return nil
}
