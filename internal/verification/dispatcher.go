package verification

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"seva/internal/document"
	"seva/internal/platform/metrics"
)

const tracerName = "seva/internal/verification"

// ResultRecorder is the slice of the document service the dispatcher needs:
// moving a record into verifying and persisting the final outcome.
type ResultRecorder interface {
	MarkVerifying(ctx context.Context, userID string, docType document.DocumentType) error
	ApplyVerification(ctx context.Context, userID string, docType document.DocumentType, result document.VerificationResult) error
}

// Dispatcher runs verification attempts in the background after an upload.
// The upload response never waits on the verifier; a record stays in
// verifying until the attempt completes or times out.
//
// An unreachable verifier is an outcome, not an error: the record moves to
// failed with a zero confidence score so the citizen sees a terminal state
// instead of a permanently spinning one.
type Dispatcher struct {
	verifier Verifier
	recorder ResultRecorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
	timeout  time.Duration
}

func NewDispatcher(verifier Verifier, recorder ResultRecorder, m *metrics.Metrics, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		verifier: verifier,
		recorder: recorder,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		timeout:  timeout,
	}
}

// Dispatch schedules one verification attempt and returns immediately.
// The request context's values survive for auditing, but its cancelation
// does not: the client closing the upload connection must not abort a
// verification already underway.
func (d *Dispatcher) Dispatch(ctx context.Context, rec document.Record, payload []byte) {
	go d.run(context.WithoutCancel(ctx), rec, payload)
}

func (d *Dispatcher) run(ctx context.Context, rec document.Record, payload []byte) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	ctx, span := d.tracer.Start(ctx, "verification.dispatch",
		trace.WithAttributes(
			attribute.String("document.type", rec.Type.String()),
			attribute.String("document.id", rec.ID),
		),
	)
	defer span.End()

	if err := d.recorder.MarkVerifying(ctx, rec.UserID, rec.Type); err != nil {
		// The record was superseded or removed between upload and now.
		d.logger.WarnContext(ctx, "skipping verification for missing document",
			"error", err,
			"document_id", rec.ID,
		)
		span.SetStatus(codes.Error, "document missing")
		return
	}

	result, err := d.verify(ctx, rec, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verifier unavailable")
		d.metrics.IncVerifications("upstream_error")
		d.logger.ErrorContext(ctx, "verification attempt failed upstream",
			"error", err,
			"document_id", rec.ID,
			"document_type", rec.Type.String(),
		)
		result = document.VerificationResult{
			IsValid:         false,
			ConfidenceScore: 0,
			DocumentType:    rec.Type,
			Errors:          []string{"verification service unavailable"},
		}
	} else {
		outcome := "failed"
		if result.IsValid {
			outcome = "verified"
		}
		d.metrics.IncVerifications(outcome)
		span.SetAttributes(
			attribute.Bool("verification.valid", result.IsValid),
			attribute.Float64("verification.confidence", result.ConfidenceScore),
		)
	}

	if err := d.recorder.ApplyVerification(ctx, rec.UserID, rec.Type, result); err != nil {
		span.RecordError(err)
		d.logger.ErrorContext(ctx, "failed to persist verification outcome",
			"error", err,
			"document_id", rec.ID,
		)
	}
}

func (d *Dispatcher) verify(ctx context.Context, rec document.Record, payload []byte) (document.VerificationResult, error) {
	ctx, span := d.tracer.Start(ctx, "verifier.call")
	defer span.End()
	return d.verifier.Verify(ctx, rec.Type, rec.FileName, payload)
}
