package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"seva/internal/audit"
	"seva/internal/document"
	"seva/internal/platform/metrics"
	"seva/internal/scheme"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/platform/sentinel"
	"seva/pkg/requestcontext"
)

// referenceAlphabet excludes lookalike characters so references survive being
// read over the phone at a help desk.
const (
	referenceAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	referenceLength   = 10
)

// DocumentReader is the slice of the document service used to check that
// attached documents exist and belong to the caller.
type DocumentReader interface {
	List(ctx context.Context, userID string) ([]document.Record, error)
}

// Service enforces the application lifecycle and the one-active-application-
// per-scheme rule.
type Service struct {
	store    Store
	catalog  *scheme.Catalog
	docs     DocumentReader
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	validate *validator.Validate
}

func NewService(
	store Store,
	catalog *scheme.Catalog,
	docs DocumentReader,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:    store,
		catalog:  catalog,
		docs:     docs,
		auditor:  auditor,
		metrics:  m,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Submit creates a pending application. Rules:
//   - the scheme must exist and still be open
//   - a user may hold at most one non-rejected application per scheme;
//     re-applying is allowed only after a rejection
//   - every attached document ID must belong to the caller
//
// Documents the scheme asks for that the citizen has not uploaded are
// reported in MissingDocuments but do not block submission; gathering
// paperwork happens after applying as often as before.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest) (View, error) {
	if err := s.validate.Struct(req); err != nil {
		return View{}, dErrors.Wrap(dErrors.CodeInvalidInput, "invalid application request", err)
	}

	sch, ok := s.catalog.ByID(req.SchemeID)
	if !ok {
		return View{}, dErrors.New(dErrors.CodeNotFound, "scheme not found: "+req.SchemeID)
	}
	if !sch.AcceptsApplications() {
		return View{}, dErrors.New(dErrors.CodeConflict, "scheme is closed for applications")
	}

	if _, err := s.store.FindActiveByUserAndScheme(ctx, userID, req.SchemeID); err == nil {
		return View{}, dErrors.New(dErrors.CodeConflict, "an application for this scheme is already pending or approved")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return View{}, dErrors.Wrap(dErrors.CodeInternal, "failed to check existing applications", err)
	}

	recs, err := s.docs.List(ctx, userID)
	if err != nil {
		return View{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load documents", err)
	}
	owned := make(map[string]document.Record, len(recs))
	for _, rec := range recs {
		owned[rec.ID] = rec
	}
	for _, docID := range req.DocumentIDs {
		if _, ok := owned[docID]; !ok {
			return View{}, dErrors.New(dErrors.CodeInvalidInput, "document not found: "+docID)
		}
	}

	now := requestcontext.Now(ctx)
	app := Application{
		ID:          uuid.NewString(),
		Reference:   newReference(),
		UserID:      userID,
		SchemeID:    req.SchemeID,
		Status:      StatusPending,
		DocumentIDs: req.DocumentIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if app.DocumentIDs == nil {
		app.DocumentIDs = []string{}
	}

	if err := s.store.Create(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent submission won the race after the check above.
			return View{}, dErrors.New(dErrors.CodeConflict, "an application for this scheme is already pending or approved")
		}
		return View{}, dErrors.Wrap(dErrors.CodeInternal, "failed to create application", err)
	}

	s.metrics.IncApplicationsCreated()
	s.auditor.Emit(ctx, audit.ActionApplicationCreated, req.SchemeID, audit.OutcomeSuccess, "")

	return View{
		Application:      app,
		SchemeName:       sch.Name,
		MissingDocuments: missingDocuments(sch, recs),
	}, nil
}

// ListForUser returns the caller's applications newest first, decorated with
// scheme names and the still-missing document types.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]View, error) {
	apps, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list applications", err)
	}

	recs, err := s.docs.List(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load documents", err)
	}

	views := make([]View, 0, len(apps))
	for _, app := range apps {
		views = append(views, s.decorate(app, recs))
	}
	return views, nil
}

// ListAll returns every application for the admin review queue. Missing
// document computation is per-citizen work the queue view does not need.
func (s *Service) ListAll(ctx context.Context) ([]View, error) {
	apps, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list applications", err)
	}

	views := make([]View, 0, len(apps))
	for _, app := range apps {
		views = append(views, s.decorate(app, nil))
	}
	return views, nil
}

// UpdateStatus applies an admin decision. Only pending applications can move;
// a second decision on the same application is rejected and the first stands.
func (s *Service) UpdateStatus(ctx context.Context, id, rawStatus string) (Application, error) {
	next, err := ParseStatus(rawStatus)
	if err != nil {
		return Application{}, err
	}
	if next == StatusPending {
		return Application{}, dErrors.New(dErrors.CodeInvalidInput, "cannot move an application back to pending")
	}

	app, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Application{}, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return Application{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load application", err)
	}

	if !app.Status.CanTransitionTo(next) {
		return Application{}, dErrors.New(dErrors.CodeConflict,
			"application is already "+string(app.Status))
	}

	now := requestcontext.Now(ctx)
	if err := s.store.UpdateStatus(ctx, id, next, now); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Application{}, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return Application{}, dErrors.Wrap(dErrors.CodeInternal, "failed to update application", err)
	}

	s.auditor.Emit(ctx, audit.ActionApplicationUpdated, app.Reference, audit.OutcomeSuccess, string(next))

	app.Status = next
	app.UpdatedAt = now
	return app, nil
}

func (s *Service) decorate(app Application, recs []document.Record) View {
	view := View{Application: app, MissingDocuments: []string{}}
	if sch, ok := s.catalog.ByID(app.SchemeID); ok {
		view.SchemeName = sch.Name
		if recs != nil {
			view.MissingDocuments = missingDocuments(sch, recs)
		}
	}
	return view
}

// missingDocuments reports the scheme's required document types the citizen
// has not uploaded at all. Order follows the scheme definition.
func missingDocuments(sch scheme.Scheme, recs []document.Record) []string {
	uploaded := make(map[string]bool, len(recs))
	for _, rec := range recs {
		uploaded[rec.Type.String()] = true
	}

	missing := []string{}
	for _, required := range sch.RequiredDocuments {
		if !uploaded[required] {
			missing = append(missing, required)
		}
	}
	return missing
}

func newReference() string {
	id, err := gonanoid.Generate(referenceAlphabet, referenceLength)
	if err != nil {
		// Only fails when the RNG is broken; a UUID fallback keeps the
		// reference unique if unreadable.
		return "APP-" + uuid.NewString()
	}
	return "APP-" + id
}
