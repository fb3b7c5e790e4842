package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"seva/internal/audit"
	"seva/internal/platform/metrics"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/platform/sentinel"
	"seva/pkg/requestcontext"
)

// ProfileSeeder creates the initial citizen profile at registration so the
// matcher has something to work with immediately.
type ProfileSeeder interface {
	CreateInitial(ctx context.Context, userID, name, location string, annualIncome *int64, familySize *int) error
}

type Service struct {
	store    Store
	tokens   *TokenService
	profiles ProfileSeeder
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	validate *validator.Validate
}

func NewService(
	store Store,
	tokens *TokenService,
	profiles ProfileSeeder,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:    store,
		tokens:   tokens,
		profiles: profiles,
		auditor:  auditor,
		metrics:  m,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register creates an account, seeds the profile, and returns a session.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	if err := s.validate.Struct(req); err != nil {
		return Session{}, dErrors.Wrap(dErrors.CodeInvalidInput, "invalid registration request", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, dErrors.Wrap(dErrors.CodeInternal, "failed to hash password", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Session{}, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return Session{}, dErrors.Wrap(dErrors.CodeInternal, "failed to create user", err)
	}

	if err := s.profiles.CreateInitial(ctx, user.ID, req.Name, req.Location, req.AnnualIncome, req.FamilySize); err != nil {
		// The account exists; a missing profile self-heals on first
		// update, so log and keep going.
		s.logger.ErrorContext(ctx, "failed to seed profile at registration",
			"error", err,
			"user_id", user.ID,
		)
	}

	token, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return Session{}, dErrors.Wrap(dErrors.CodeInternal, "failed to issue token", err)
	}

	s.metrics.IncUsersRegistered()
	s.auditor.Emit(requestcontext.WithUserID(ctx, user.ID),
		audit.ActionUserRegistered, user.Email, audit.OutcomeSuccess, "")

	user.PasswordHash = ""
	return Session{Token: token, User: user}, nil
}

// Login checks credentials and returns a fresh session. Unknown email and
// wrong password produce the same answer.
func (s *Service) Login(ctx context.Context, req LoginRequest) (Session, error) {
	if err := s.validate.Struct(req); err != nil {
		return Session{}, dErrors.Wrap(dErrors.CodeInvalidInput, "invalid login request", err)
	}

	user, err := s.store.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.auditor.Emit(ctx, audit.ActionUserLoggedIn, req.Email, audit.OutcomeFailure, "unknown email")
			return Session{}, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return Session{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.auditor.Emit(requestcontext.WithUserID(ctx, user.ID),
			audit.ActionUserLoggedIn, user.Email, audit.OutcomeFailure, "wrong password")
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	token, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return Session{}, dErrors.Wrap(dErrors.CodeInternal, "failed to issue token", err)
	}

	s.auditor.Emit(requestcontext.WithUserID(ctx, user.ID),
		audit.ActionUserLoggedIn, user.Email, audit.OutcomeSuccess, "")

	user.PasswordHash = ""
	return Session{Token: token, User: user}, nil
}
