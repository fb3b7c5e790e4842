package application

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"seva/internal/audit"
	"seva/internal/document"
	"seva/internal/scheme"
	dErrors "seva/pkg/domain-errors"
)

type fakeDocumentReader struct {
	records map[string][]document.Record
}

func (r *fakeDocumentReader) List(_ context.Context, userID string) ([]document.Record, error) {
	return r.records[userID], nil
}

type ApplicationServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	docs    *fakeDocumentReader
	catalog *scheme.Catalog
	service *Service
}

func TestApplicationServiceSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceSuite))
}

func (s *ApplicationServiceSuite) SetupTest() {
	var err error
	s.catalog, err = scheme.LoadCatalog()
	s.Require().NoError(err)

	s.store = NewInMemoryStore()
	s.docs = &fakeDocumentReader{records: make(map[string][]document.Record)}

	logger := slog.New(slog.DiscardHandler)
	s.service = NewService(s.store, s.catalog, s.docs, audit.NewPublisher(logger), nil, logger)
}

func (s *ApplicationServiceSuite) submit(userID, schemeID string, docIDs ...string) (View, error) {
	return s.service.Submit(context.Background(), userID, SubmitRequest{
		SchemeID:    schemeID,
		DocumentIDs: docIDs,
	})
}

func (s *ApplicationServiceSuite) TestSubmit() {
	s.Run("happy path creates a pending application", func() {
		view, err := s.submit("user-1", "pm-kisan")
		s.Require().NoError(err)

		s.Equal(StatusPending, view.Status)
		s.Equal("pm-kisan", view.SchemeID)
		s.NotEmpty(view.ID)
		s.True(strings.HasPrefix(view.Reference, "APP-"), "reference %q", view.Reference)
		s.NotEmpty(view.SchemeName)
		s.NotNil(view.DocumentIDs)
		s.False(view.CreatedAt.IsZero())
	})

	s.Run("unknown scheme is not found", func() {
		_, err := s.submit("user-1", "no-such-scheme")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("closed scheme is rejected", func() {
		var closed string
		for _, sch := range s.catalog.All() {
			if !sch.AcceptsApplications() {
				closed = sch.ID
				break
			}
		}
		s.Require().NotEmpty(closed, "catalog carries a closed scheme")

		_, err := s.submit("user-1", closed)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("missing scheme id fails validation", func() {
		_, err := s.submit("user-1", "")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func (s *ApplicationServiceSuite) TestSubmitDuplicateRules() {
	ctx := context.Background()

	first, err := s.submit("user-1", "pm-kisan")
	s.Require().NoError(err)

	s.Run("second application while pending conflicts", func() {
		_, err := s.submit("user-1", "pm-kisan")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("other users are unaffected", func() {
		_, err := s.submit("user-2", "pm-kisan")
		s.NoError(err)
	})

	s.Run("same user can apply to a different scheme", func() {
		_, err := s.submit("user-1", "skill-india")
		s.NoError(err)
	})

	s.Run("approval still blocks re-applying", func() {
		_, err := s.service.UpdateStatus(ctx, first.ID, "approved")
		s.Require().NoError(err)

		_, err = s.submit("user-1", "pm-kisan")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})
}

func (s *ApplicationServiceSuite) TestSubmitRaceAdmitsOneApplication() {
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.submit("user-1", "pm-kisan")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.True(dErrors.Is(err, dErrors.CodeConflict), "losers see a conflict, got %v", err)
	}
	s.Equal(1, succeeded, "concurrent submissions admit exactly one application")

	views, err := s.service.ListForUser(ctx, "user-1")
	s.Require().NoError(err)
	s.Len(views, 1)
}

func (s *ApplicationServiceSuite) TestSubmitAfterRejection() {
	ctx := context.Background()

	first, err := s.submit("user-1", "pm-kisan")
	s.Require().NoError(err)

	_, err = s.service.UpdateStatus(ctx, first.ID, "rejected")
	s.Require().NoError(err)

	second, err := s.submit("user-1", "pm-kisan")
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)

	views, err := s.service.ListForUser(ctx, "user-1")
	s.Require().NoError(err)
	s.Len(views, 2, "the rejected application stays in history")
}

func (s *ApplicationServiceSuite) TestSubmitDocumentOwnership() {
	s.docs.records["user-1"] = []document.Record{
		{ID: "doc-own", UserID: "user-1", Type: document.TypeAadharCard},
	}
	s.docs.records["user-2"] = []document.Record{
		{ID: "doc-other", UserID: "user-2", Type: document.TypePANCard},
	}

	s.Run("own document is accepted", func() {
		view, err := s.submit("user-1", "pm-kisan", "doc-own")
		s.Require().NoError(err)
		s.Equal([]string{"doc-own"}, view.DocumentIDs)
	})

	s.Run("someone else's document is rejected", func() {
		_, err := s.submit("user-1", "skill-india", "doc-other")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown document is rejected", func() {
		_, err := s.submit("user-1", "skill-india", "doc-ghost")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func (s *ApplicationServiceSuite) TestMissingDocuments() {
	sch, ok := s.catalog.ByID("pm-kisan")
	s.Require().True(ok)
	s.Require().NotEmpty(sch.RequiredDocuments)

	s.Run("nothing uploaded means everything missing", func() {
		view, err := s.submit("user-1", "pm-kisan")
		s.Require().NoError(err)
		s.Equal(sch.RequiredDocuments, view.MissingDocuments)
	})

	s.Run("uploaded types drop off the missing list", func() {
		s.docs.records["user-2"] = []document.Record{
			{ID: "d1", UserID: "user-2", Type: document.DocumentType(sch.RequiredDocuments[0])},
		}
		view, err := s.submit("user-2", "pm-kisan")
		s.Require().NoError(err)
		s.NotContains(view.MissingDocuments, sch.RequiredDocuments[0])
		s.Len(view.MissingDocuments, len(sch.RequiredDocuments)-1)
	})
}

func (s *ApplicationServiceSuite) TestUpdateStatus() {
	ctx := context.Background()

	s.Run("approve a pending application", func() {
		view, err := s.submit("user-1", "pm-kisan")
		s.Require().NoError(err)

		app, err := s.service.UpdateStatus(ctx, view.ID, "approved")
		s.Require().NoError(err)
		s.Equal(StatusApproved, app.Status)

		stored, err := s.store.FindByID(ctx, view.ID)
		s.Require().NoError(err)
		s.True(app.UpdatedAt.Equal(stored.UpdatedAt), "the returned timestamp is the persisted one")
	})

	s.Run("second decision conflicts and the first stands", func() {
		view, err := s.submit("user-2", "pm-kisan")
		s.Require().NoError(err)

		_, err = s.service.UpdateStatus(ctx, view.ID, "approved")
		s.Require().NoError(err)

		_, err = s.service.UpdateStatus(ctx, view.ID, "rejected")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))

		stored, err := s.store.FindByID(ctx, view.ID)
		s.Require().NoError(err)
		s.Equal(StatusApproved, stored.Status, "the original decision is retained")
	})

	s.Run("invalid status string", func() {
		_, err := s.service.UpdateStatus(ctx, "any-id", "escalated")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("pending is not a decision", func() {
		_, err := s.service.UpdateStatus(ctx, "any-id", "pending")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown application", func() {
		_, err := s.service.UpdateStatus(ctx, "no-such-id", "approved")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func (s *ApplicationServiceSuite) TestListForUser() {
	ctx := context.Background()

	_, err := s.submit("user-1", "pm-kisan")
	s.Require().NoError(err)
	_, err = s.submit("user-1", "skill-india")
	s.Require().NoError(err)
	_, err = s.submit("user-2", "pm-kisan")
	s.Require().NoError(err)

	views, err := s.service.ListForUser(ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(views, 2)
	for _, v := range views {
		s.Equal("user-1", v.UserID)
		s.NotEmpty(v.SchemeName)
	}

	all, err := s.service.ListAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}
