//go:build integration

package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"seva/internal/application"
	"seva/internal/platform/postgres"
	"seva/pkg/platform/sentinel"
	"seva/pkg/testutil/containers"
)

type PostgresApplicationStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *application.PostgresStore
}

func TestPostgresApplicationStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresApplicationStoreSuite))
}

func (s *PostgresApplicationStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(postgres.EnsureSchema(context.Background(), s.pg.Pool))
	s.store = application.NewPostgresStore(s.pg.Pool)
}

func (s *PostgresApplicationStoreSuite) SetupTest() {
	err := s.pg.TruncateTables(context.Background(),
		"applications", "documents", "profiles", "users")
	s.Require().NoError(err)
}

func (s *PostgresApplicationStoreSuite) seedUser() string {
	id := uuid.NewString()
	_, err := s.pg.Pool.Exec(context.Background(),
		"INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4)",
		id, "Asha Devi", id+"@example.com", "x")
	s.Require().NoError(err)
	return id
}

func (s *PostgresApplicationStoreSuite) newApplication(userID, schemeID string) application.Application {
	now := time.Now().UTC()
	return application.Application{
		ID:          uuid.NewString(),
		Reference:   "APP-" + uuid.NewString()[:10],
		UserID:      userID,
		SchemeID:    schemeID,
		Status:      application.StatusPending,
		DocumentIDs: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *PostgresApplicationStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	userID := s.seedUser()

	app := s.newApplication(userID, "pm-kisan")
	app.DocumentIDs = []string{uuid.NewString(), uuid.NewString()}
	s.Require().NoError(s.store.Create(ctx, app))

	found, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(app.Reference, found.Reference)
	s.Equal(application.StatusPending, found.Status)
	s.Equal(app.DocumentIDs, found.DocumentIDs)
}

func (s *PostgresApplicationStoreSuite) TestFindActiveByUserAndScheme() {
	ctx := context.Background()
	userID := s.seedUser()

	app := s.newApplication(userID, "pm-kisan")
	s.Require().NoError(s.store.Create(ctx, app))

	s.Run("pending application is active", func() {
		found, err := s.store.FindActiveByUserAndScheme(ctx, userID, "pm-kisan")
		s.Require().NoError(err)
		s.Equal(app.ID, found.ID)
	})

	s.Run("other scheme has no active application", func() {
		_, err := s.store.FindActiveByUserAndScheme(ctx, userID, "pm-awas")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("approved application stays active", func() {
		s.Require().NoError(s.store.UpdateStatus(ctx, app.ID, application.StatusApproved, time.Now().UTC()))
		found, err := s.store.FindActiveByUserAndScheme(ctx, userID, "pm-kisan")
		s.Require().NoError(err)
		s.Equal(application.StatusApproved, found.Status)
	})

	s.Run("rejected application is not active", func() {
		s.Require().NoError(s.store.UpdateStatus(ctx, app.ID, application.StatusRejected, time.Now().UTC()))
		_, err := s.store.FindActiveByUserAndScheme(ctx, userID, "pm-kisan")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresApplicationStoreSuite) TestListOrdering() {
	ctx := context.Background()
	userID := s.seedUser()

	older := s.newApplication(userID, "pm-kisan")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	older.UpdatedAt = older.CreatedAt
	newer := s.newApplication(userID, "pm-awas")

	s.Require().NoError(s.store.Create(ctx, older))
	s.Require().NoError(s.store.Create(ctx, newer))

	apps, err := s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(apps, 2)
	s.Equal(newer.ID, apps[0].ID, "newest first")
	s.Equal(older.ID, apps[1].ID)
}

func (s *PostgresApplicationStoreSuite) TestListAllSpansUsers() {
	ctx := context.Background()
	userA := s.seedUser()
	userB := s.seedUser()

	s.Require().NoError(s.store.Create(ctx, s.newApplication(userA, "pm-kisan")))
	s.Require().NoError(s.store.Create(ctx, s.newApplication(userB, "pm-awas")))

	apps, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Len(apps, 2)
}

func (s *PostgresApplicationStoreSuite) TestUpdateStatus() {
	ctx := context.Background()
	userID := s.seedUser()

	app := s.newApplication(userID, "pm-kisan")
	s.Require().NoError(s.store.Create(ctx, app))

	decidedAt := time.Now().UTC().Add(time.Minute).Truncate(time.Microsecond)
	s.Require().NoError(s.store.UpdateStatus(ctx, app.ID, application.StatusApproved, decidedAt))

	found, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(application.StatusApproved, found.Status)
	s.True(found.UpdatedAt.Equal(decidedAt), "the caller's timestamp is the one persisted")

	err = s.store.UpdateStatus(ctx, uuid.NewString(), application.StatusApproved, decidedAt)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresApplicationStoreSuite) TestCreateRejectsSecondActiveForScheme() {
	ctx := context.Background()
	userID := s.seedUser()

	first := s.newApplication(userID, "pm-kisan")
	s.Require().NoError(s.store.Create(ctx, first))

	s.Run("second active application for the same scheme conflicts", func() {
		err := s.store.Create(ctx, s.newApplication(userID, "pm-kisan"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("another scheme is unaffected", func() {
		s.NoError(s.store.Create(ctx, s.newApplication(userID, "pm-awas")))
	})

	s.Run("rejection frees the slot", func() {
		s.Require().NoError(s.store.UpdateStatus(ctx, first.ID, application.StatusRejected, time.Now().UTC()))
		s.NoError(s.store.Create(ctx, s.newApplication(userID, "pm-kisan")))
	})
}
