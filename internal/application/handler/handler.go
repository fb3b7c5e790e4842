package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"seva/internal/application"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/platform/httputil"
	"seva/pkg/requestcontext"
)

type Service interface {
	Submit(ctx context.Context, userID string, req application.SubmitRequest) (application.View, error)
	ListForUser(ctx context.Context, userID string) ([]application.View, error)
	ListAll(ctx context.Context) ([]application.View, error)
	UpdateStatus(ctx context.Context, id, rawStatus string) (application.Application, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the citizen-facing application routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/applications", h.handleSubmit)
	r.Get("/api/applications", h.handleList)
}

// RegisterAdmin mounts the review routes; the router wraps these in the
// admin-only middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/api/admin/applications", h.handleListAll)
	r.Patch("/api/admin/applications/{id}", h.handleUpdateStatus)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req application.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	view, err := h.svc.Submit(ctx, requestcontext.UserID(ctx), req)
	if err != nil {
		h.writeError(ctx, w, "application submit failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	views, err := h.svc.ListForUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.writeError(ctx, w, "application list failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"applications": views,
		"total":        len(views),
	})
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	views, err := h.svc.ListAll(ctx)
	if err != nil {
		h.writeError(ctx, w, "admin application list failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"applications": views,
		"total":        len(views),
	})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req application.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	app, err := h.svc.UpdateStatus(ctx, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeError(ctx, w, "application status update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, app)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
