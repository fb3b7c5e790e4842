package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"seva/pkg/requestcontext"
)

const defaultBufferSize = 256

// Publisher accepts events from request handlers and hands them to a
// background worker over a buffered channel. Emit never blocks a request:
// when the buffer is full the event is dropped and counted in the log.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{
		inbox:  make(chan Event, defaultBufferSize),
		logger: logger,
	}
}

// Emit fills in identity and client metadata from the request context and
// queues the event.
func (p *Publisher) Emit(ctx context.Context, action, subject, outcome, reason string) {
	if p == nil {
		return
	}
	event := Event{
		ID:        uuid.NewString(),
		Timestamp: requestcontext.Now(ctx),
		UserID:    requestcontext.UserID(ctx),
		Action:    action,
		Subject:   subject,
		Outcome:   outcome,
		Reason:    reason,
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}

	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit buffer full, dropping event",
			"action", action,
			"subject", subject,
		)
	}
}

// Worker drains the publisher's inbox into a sink. Run until the context is
// canceled, then flush whatever is already buffered.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(p *Publisher, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: p.inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.write(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	// Shutdown path: the request context is gone, so give the sink a
	// bounded window of its own.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case event := <-w.inbox:
			w.write(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) write(ctx context.Context, event Event) {
	if err := w.sink.Write(ctx, event); err != nil {
		w.logger.Error("failed to persist audit event",
			"error", err,
			"action", event.Action,
			"event_id", event.ID,
		)
	}
}
