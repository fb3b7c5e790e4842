package application

import (
	"context"
	"time"
)

// Store persists applications.
type Store interface {
	// Create inserts a new application. Returns sentinel.ErrConflict when the
	// user already holds a non-rejected application for the same scheme, so
	// two racing submissions cannot both land.
	Create(ctx context.Context, app Application) error
	FindByID(ctx context.Context, id string) (Application, error)
	// FindActiveByUserAndScheme returns the user's non-rejected application
	// for a scheme, or sentinel.ErrNotFound when re-applying is allowed.
	FindActiveByUserAndScheme(ctx context.Context, userID, schemeID string) (Application, error)
	// ListByUser returns the user's applications newest first.
	ListByUser(ctx context.Context, userID string) ([]Application, error)
	// ListAll returns every application newest first, for the admin queue.
	ListAll(ctx context.Context) ([]Application, error)
	// UpdateStatus persists the new state and the given touch time. The
	// lifecycle check happens in the service; the store just writes.
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
}
