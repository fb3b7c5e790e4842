package auth

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"seva/internal/audit"
	dErrors "seva/pkg/domain-errors"
)

type seededProfile struct {
	userID   string
	name     string
	location string
}

type fakeProfileSeeder struct {
	seeded []seededProfile
}

func (f *fakeProfileSeeder) CreateInitial(_ context.Context, userID, name, location string, _ *int64, _ *int) error {
	f.seeded = append(f.seeded, seededProfile{userID: userID, name: name, location: location})
	return nil
}

type AuthServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	seeder  *fakeProfileSeeder
	tokens  *TokenService
	service *Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.seeder = &fakeProfileSeeder{}
	s.tokens = NewTokenService(testAuthConfig())

	logger := slog.New(slog.DiscardHandler)
	s.service = NewService(s.store, s.tokens, s.seeder, audit.NewPublisher(logger), nil, logger)
}

func (s *AuthServiceSuite) register(email string) (Session, error) {
	return s.service.Register(context.Background(), RegisterRequest{
		Name:     "Asha Devi",
		Email:    email,
		Password: "correct-horse",
		Location: "Bihar",
	})
}

func (s *AuthServiceSuite) TestRegister() {
	s.Run("happy path returns a usable session", func() {
		session, err := s.register("asha@example.com")
		s.Require().NoError(err)

		s.NotEmpty(session.Token)
		s.NotEmpty(session.User.ID)
		s.Equal("asha@example.com", session.User.Email)
		s.Empty(session.User.PasswordHash, "hash stays server-side")

		userID, admin, err := s.tokens.ValidateToken(session.Token)
		s.Require().NoError(err)
		s.Equal(session.User.ID, userID)
		s.False(admin)
	})

	s.Run("registration seeds the profile", func() {
		s.Require().NotEmpty(s.seeder.seeded)
		seeded := s.seeder.seeded[0]
		s.Equal("Asha Devi", seeded.name)
		s.Equal("Bihar", seeded.location)
	})

	s.Run("duplicate email conflicts", func() {
		_, err := s.register("asha@example.com")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("duplicate email detection ignores case", func() {
		_, err := s.register("ASHA@example.com")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("short password fails validation", func() {
		_, err := s.service.Register(context.Background(), RegisterRequest{
			Name:     "X",
			Email:    "x@example.com",
			Password: "short",
		})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("bad email fails validation", func() {
		_, err := s.service.Register(context.Background(), RegisterRequest{
			Name:     "X",
			Email:    "not-an-email",
			Password: "long-enough-password",
		})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func (s *AuthServiceSuite) TestLogin() {
	_, err := s.register("asha@example.com")
	s.Require().NoError(err)

	s.Run("correct credentials", func() {
		session, err := s.service.Login(context.Background(), LoginRequest{
			Email:    "asha@example.com",
			Password: "correct-horse",
		})
		s.Require().NoError(err)
		s.NotEmpty(session.Token)
	})

	s.Run("wrong password", func() {
		_, err := s.service.Login(context.Background(), LoginRequest{
			Email:    "asha@example.com",
			Password: "wrong-password",
		})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown email gives the same error as wrong password", func() {
		_, err := s.service.Login(context.Background(), LoginRequest{
			Email:    "nobody@example.com",
			Password: "correct-horse",
		})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})
}
