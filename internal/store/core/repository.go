package core

import "context"

// UserStore is the primary data store boundary consumed by role
// resolution: a document-style get-by-id.
type UserStore interface {
	// GetUserByID returns the user record for uid, ErrNotFound when the
	// record is absent, or a transport error when the store is
	// unreachable.
	GetUserByID(ctx context.Context, uid string) (*User, error)

	// Close releases any underlying connections.
	Close(ctx context.Context) error
}
