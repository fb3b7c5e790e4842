package document

import (
	"context"
	"time"
)

// Store persists document records. Upsert enforces the one-record-per-
// (user, type) invariant; implementations back it with a unique constraint
// (Postgres) or a keyed map (memory).
type Store interface {
	// Upsert replaces any existing record for (rec.UserID, rec.Type).
	Upsert(ctx context.Context, rec Record) error
	ListByUser(ctx context.Context, userID string) ([]Record, error)
	FindByUserAndType(ctx context.Context, userID string, docType DocumentType) (Record, error)
	// SetStatus moves a record through the verification lifecycle without
	// touching its result fields. Returns sentinel.ErrNotFound for a
	// missing pair.
	SetStatus(ctx context.Context, userID string, docType DocumentType, status Status) error
	// ApplyResult records a completed verification attempt. Idempotent.
	// Returns sentinel.ErrNotFound for a missing pair.
	ApplyResult(ctx context.Context, userID string, docType DocumentType, result VerificationResult, at time.Time) error
}
