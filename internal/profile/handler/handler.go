package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"seva/internal/profile"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/platform/httputil"
	"seva/pkg/requestcontext"
)

// Service defines the profile operations the handler needs.
type Service interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
	Update(ctx context.Context, userID string, req profile.UpdateRequest) (profile.Profile, error)
}

type Handler struct {
	profiles Service
	logger   *slog.Logger
}

func New(profiles Service, logger *slog.Logger) *Handler {
	return &Handler{profiles: profiles, logger: logger}
}

// Register mounts the profile routes. The caller supplies a router that
// already enforces authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/profile", h.handleGet)
	r.Put("/api/profile", h.handleUpdate)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	p, err := h.profiles.Get(ctx, userID)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to load profile",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	var req profile.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	p, err := h.profiles.Update(ctx, userID, req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to update profile",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
