package profile

import "context"

// Store is interface-driven so the in-memory and Postgres implementations can
// be swapped without touching service code.
type Store interface {
	Save(ctx context.Context, p Profile) error
	FindByUserID(ctx context.Context, userID string) (Profile, error)
}
