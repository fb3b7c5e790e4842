package document

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"seva/pkg/platform/sentinel"
)

type InMemoryDocumentStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryDocumentStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryDocumentStoreSuite))
}

func (s *InMemoryDocumentStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func (s *InMemoryDocumentStoreSuite) record(userID string, docType DocumentType, uploadedAt time.Time) Record {
	return Record{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Type:               docType,
		FileName:           "scan.pdf",
		FileSizeBytes:      1024,
		StorageKey:         "documents/" + userID + "/" + docType.Slug(),
		Status:             StatusPending,
		VerificationErrors: []string{},
		UploadedAt:         uploadedAt,
	}
}

func (s *InMemoryDocumentStoreSuite) TestUpsertKeysByUserAndType() {
	ctx := context.Background()
	now := time.Now().UTC()

	first := s.record("user-1", TypeAadharCard, now)
	s.Require().NoError(s.store.Upsert(ctx, first))

	second := s.record("user-1", TypeAadharCard, now.Add(time.Minute))
	s.Require().NoError(s.store.Upsert(ctx, second))

	recs, err := s.store.ListByUser(ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(recs, 1, "re-upload replaces the existing record")
	s.Equal(second.ID, recs[0].ID)
}

func (s *InMemoryDocumentStoreSuite) TestListByUserOrdering() {
	ctx := context.Background()
	now := time.Now().UTC()

	s.Require().NoError(s.store.Upsert(ctx, s.record("user-1", TypeVoterID, now.Add(-time.Hour))))
	s.Require().NoError(s.store.Upsert(ctx, s.record("user-1", TypePANCard, now)))
	s.Require().NoError(s.store.Upsert(ctx, s.record("user-1", TypeAadharCard, now)))
	s.Require().NoError(s.store.Upsert(ctx, s.record("user-2", TypeAadharCard, now)))

	recs, err := s.store.ListByUser(ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(recs, 3)
	s.Equal(TypeAadharCard, recs[0].Type, "ties on upload time break by type")
	s.Equal(TypePANCard, recs[1].Type)
	s.Equal(TypeVoterID, recs[2].Type, "oldest last")
}

func (s *InMemoryDocumentStoreSuite) TestFindByUserAndType() {
	ctx := context.Background()
	rec := s.record("user-1", TypeAadharCard, time.Now().UTC())
	s.Require().NoError(s.store.Upsert(ctx, rec))

	found, err := s.store.FindByUserAndType(ctx, "user-1", TypeAadharCard)
	s.Require().NoError(err)
	s.Equal(rec.ID, found.ID)

	_, err = s.store.FindByUserAndType(ctx, "user-1", TypePANCard)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByUserAndType(ctx, "user-2", TypeAadharCard)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryDocumentStoreSuite) TestSetStatus() {
	ctx := context.Background()
	s.Require().NoError(s.store.Upsert(ctx, s.record("user-1", TypeAadharCard, time.Now().UTC())))

	s.Require().NoError(s.store.SetStatus(ctx, "user-1", TypeAadharCard, StatusVerifying))

	found, err := s.store.FindByUserAndType(ctx, "user-1", TypeAadharCard)
	s.Require().NoError(err)
	s.Equal(StatusVerifying, found.Status)

	err = s.store.SetStatus(ctx, "user-1", TypeRationCard, StatusVerifying)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryDocumentStoreSuite) TestApplyResult() {
	ctx := context.Background()
	s.Require().NoError(s.store.Upsert(ctx, s.record("user-1", TypeAadharCard, time.Now().UTC())))

	at := time.Now().UTC()
	result := VerificationResult{IsValid: true, ConfidenceScore: 0.95, DocumentType: TypeAadharCard, Errors: []string{}}
	s.Require().NoError(s.store.ApplyResult(ctx, "user-1", TypeAadharCard, result, at))

	found, err := s.store.FindByUserAndType(ctx, "user-1", TypeAadharCard)
	s.Require().NoError(err)
	s.Equal(StatusVerified, found.Status)
	s.True(found.IsVerified)
	s.InDelta(0.95, found.ConfidenceScore, 1e-9)
	s.Require().NotNil(found.VerifiedAt)
	s.True(found.VerifiedAt.Equal(at))

	err = s.store.ApplyResult(ctx, "user-1", TypeVoterID, result, at)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
