package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"seva/internal/auth"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/platform/httputil"
	"seva/pkg/requestcontext"
)

type Service interface {
	Register(ctx context.Context, req auth.RegisterRequest) (auth.Session, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.Session, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the public account routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/register", h.handleRegister)
	r.Post("/api/login", h.handleLogin)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	session, err := h.svc.Register(ctx, req)
	if err != nil {
		h.writeError(ctx, w, "registration failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	session, err := h.svc.Login(ctx, req)
	if err != nil {
		h.writeError(ctx, w, "login failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
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
