package auth

import "context"

// Store persists user accounts. Create returns sentinel.ErrConflict when the
// email is already registered.
type Store interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}
