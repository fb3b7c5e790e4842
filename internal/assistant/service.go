package assistant

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"seva/internal/audit"
	dErrors "seva/pkg/domain-errors"
)

// systemPrompt keeps the assistant on topic: welfare schemes, documents, and
// applications, in plain language.
const systemPrompt = "You are a helpful assistant for a citizen welfare portal. " +
	"Answer questions about government welfare schemes, required documents, " +
	"and application status in short, plain language. If you do not know, say so " +
	"and suggest contacting the local help desk."

const maxHistoryTurns = 10

type ChatRequest struct {
	Message string    `json:"message" validate:"required,max=2000"`
	History []Message `json:"history" validate:"omitempty,max=20,dive"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type Service struct {
	completer Completer
	auditor   *audit.Publisher
	logger    *slog.Logger
	validate  *validator.Validate
}

// NewService accepts a nil completer; chat then reports the assistant as
// unavailable instead of failing at startup.
func NewService(completer Completer, auditor *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{
		completer: completer,
		auditor:   auditor,
		logger:    logger,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return ChatResponse{}, dErrors.Wrap(dErrors.CodeInvalidInput, "invalid chat request", err)
	}
	if s.completer == nil {
		return ChatResponse{}, dErrors.New(dErrors.CodeUpstream, "assistant is not configured")
	}

	messages := make([]Message, 0, len(req.History)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	history := req.History
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: req.Message})

	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		s.auditor.Emit(ctx, audit.ActionAssistantQueried, "", audit.OutcomeFailure, "provider error")
		return ChatResponse{}, dErrors.Wrap(dErrors.CodeUpstream, "assistant is unavailable", err)
	}

	s.auditor.Emit(ctx, audit.ActionAssistantQueried, "", audit.OutcomeSuccess, "")
	return ChatResponse{Reply: reply}, nil
}
