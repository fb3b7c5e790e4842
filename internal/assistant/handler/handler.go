package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"seva/internal/assistant"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/platform/httputil"
	"seva/pkg/requestcontext"
)

type Service interface {
	Chat(ctx context.Context, req assistant.ChatRequest) (assistant.ChatResponse, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/assistant/chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req assistant.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	resp, err := h.svc.Chat(ctx, req)
	if err != nil {
		code := dErrors.CodeOf(err)
		if code == dErrors.CodeInternal || code == dErrors.CodeUpstream {
			h.logger.ErrorContext(ctx, "assistant chat failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
