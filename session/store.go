package session

import "context"

// Store is the durable source of truth for sessions.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by token. Returns ErrSessionNotFound when the
	// token is unknown; expiry is the caller's concern.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes a session by token. Deleting an absent token is not an
	// error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes sessions whose expiry has passed. Maintenance
	// only, never called on the request hot path.
	DeleteExpired(ctx context.Context) (int64, error)
}
