package profile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"seva/internal/audit"
	"seva/internal/platform/metrics"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/platform/sentinel"
	"seva/pkg/requestcontext"
)

// Service owns profile reads and writes. Cache failures are never fatal: a
// broken cache degrades to store reads, a failed invalidation is logged and
// the TTL bounds the staleness window.
type Service struct {
	store    Store
	cache    Cache
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	validate *validator.Validate
}

func NewService(store Store, cache Cache, auditor *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		auditor:  auditor,
		metrics:  m,
		logger:   logger,
		validate: validator.New(),
	}
}

// CreateInitial seeds a profile at registration with the required fields only.
// All optional attributes stay absent until the user fills in their profile.
func (s *Service) CreateInitial(ctx context.Context, userID, name, location string, income *int64, familySize *int) error {
	p := Profile{
		UserID:       userID,
		Name:         name,
		Location:     location,
		AnnualIncome: income,
		FamilySize:   familySize,
		UpdatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, p); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "failed to create profile", err)
	}
	return nil
}

// Get returns the caller's profile, served from cache when possible.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	if s.cache != nil {
		if p, err := s.cache.Get(ctx, userID); err == nil {
			s.metrics.IncProfileCacheHit()
			return p, nil
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "profile cache read failed", "error", err, "user_id", userID)
		}
	}
	s.metrics.IncProfileCacheMiss()

	p, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Profile{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return Profile{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load profile", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, p); err != nil {
			s.logger.WarnContext(ctx, "profile cache backfill failed", "error", err, "user_id", userID)
		}
	}
	return p, nil
}

// Update replaces the stored profile and invalidates the cache entry
// (delete-on-write; the cache is never treated as authoritative).
func (s *Service) Update(ctx context.Context, userID string, req UpdateRequest) (Profile, error) {
	if err := s.validate.Struct(req); err != nil {
		return Profile{}, dErrors.New(dErrors.CodeInvalidInput, "invalid profile: "+err.Error())
	}

	p := Profile{
		UserID:            userID,
		Name:              req.Name,
		Contact:           req.Contact,
		Age:               req.Age,
		Sex:               req.Sex,
		MaritalStatus:     req.MaritalStatus,
		Location:          req.Location,
		FamilySize:        req.FamilySize,
		AnnualIncome:      req.AnnualIncome,
		ResidenceType:     req.ResidenceType,
		SocialCategory:    req.SocialCategory,
		IsDisabled:        req.IsDisabled,
		DisabilityPercent: req.DisabilityPercent,
		IsMinority:        req.IsMinority,
		IsStudent:         req.IsStudent,
		EmploymentStatus:  req.EmploymentStatus,
		IsGovtEmployee:    req.IsGovtEmployee,
		LandSizeAcres:     req.LandSizeAcres,
		UpdatedAt:         requestcontext.Now(ctx),
	}

	if err := s.store.Save(ctx, p); err != nil {
		return Profile{}, dErrors.Wrap(dErrors.CodeInternal, "failed to save profile", err)
	}

	s.auditor.Emit(ctx, audit.ActionProfileUpdated, userID, audit.OutcomeSuccess, "")

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			s.logger.WarnContext(ctx, "profile cache invalidation failed", "error", err, "user_id", userID)
		}
	}
	return p, nil
}
