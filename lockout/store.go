package lockout

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists login attempts and the per-account lockout state.
type Store interface {
	// RecordAttempt appends one login attempt.
	RecordAttempt(ctx context.Context, attempt *Attempt) error

	// CountFailuresSince counts failed attempts for the account in the
	// trailing window starting at since.
	CountFailuresSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error)

	// CountDistinctIPsSince counts distinct source IPs seen for the account
	// since the given time.
	CountDistinctIPsSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error)

	// GetState returns the account's lockout state. An account with no row
	// yet returns an unlocked zero state, not an error.
	GetState(ctx context.Context, accountID uuid.UUID) (*State, error)

	// SetLock marks the account locked until the given time.
	SetLock(ctx context.Context, accountID uuid.UUID, lockedAt, lockedUntil time.Time) error

	// ClearLock removes the lock. Clearing an unlocked account is not an
	// error.
	ClearLock(ctx context.Context, accountID uuid.UUID) error
}
