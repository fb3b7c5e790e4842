package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"seva/internal/platform/metrics"
	"seva/internal/profile"
	"seva/internal/scheme"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/platform/httputil"
	"seva/pkg/requestcontext"
)

// ProfileService supplies the caller's profile for server-side matching.
type ProfileService interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
}

type Handler struct {
	catalog  *scheme.Catalog
	profiles ProfileService
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(catalog *scheme.Catalog, profiles ProfileService, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{catalog: catalog, profiles: profiles, metrics: m, logger: logger}
}

// Register mounts scheme routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/schemes", h.handleMatched)
	r.Get("/api/schemes/all", h.handleAll)
}

// handleMatched runs the eligibility matcher against the caller's stored
// profile. A user who has not filled in a profile yet still gets the
// unconstrained schemes, matching what an empty profile qualifies for.
func (h *Handler) handleMatched(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	p, err := h.profiles.Get(ctx, userID)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to load profile for matching",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, err)
			return
		}
		p = profile.Profile{UserID: userID}
	}

	start := time.Now()
	matched := scheme.Match(&p, h.catalog.All())
	h.metrics.ObserveMatchDuration(time.Since(start).Seconds())

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"schemes": matched,
		"total":   len(matched),
	})
}

func (h *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
	all := h.catalog.All()
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"schemes": all,
		"total":   len(all),
	})
}
