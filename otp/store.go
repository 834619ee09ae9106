package otp

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the durable source of truth for OTP records.
//
// Implementations must uphold two invariants: Create fails with
// ErrActiveRecordExists when the account already has an active record, and
// IncrementAttempts is an atomic increment-and-fetch so two concurrent
// validations can never observe the same attempt number.
type Store interface {
	// Create persists a new record, enforcing the single-active-record
	// invariant per account.
	Create(ctx context.Context, record *Record) error

	// GetActive returns the account's single active record at the given
	// time, or ErrNoActiveOTP.
	GetActive(ctx context.Context, accountID uuid.UUID, now time.Time) (*Record, error)

	// GetByID returns a record regardless of state, or ErrRecordNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// IncrementAttempts atomically increments the attempt counter and
	// returns the new value.
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)

	// MarkValidated transitions the record to its validated terminal state,
	// records the issued session for audit traceability and clears the
	// transient plaintext.
	MarkValidated(ctx context.Context, id uuid.UUID, at time.Time, sessionToken string, sessionExpiresAt time.Time) error

	// MarkDelivery records the dispatch outcome. A successful delivery
	// clears the transient plaintext.
	MarkDelivery(ctx context.Context, id uuid.UUID, status DeliveryStatus, deliveryError string) error

	// Invalidate transitions the record to its invalidated terminal state
	// and clears the transient plaintext. Idempotent: re-invalidating keeps
	// the original timestamp and reason.
	Invalidate(ctx context.Context, id uuid.UUID, reason string, at time.Time) error

	// DeleteOlderThan removes terminal records generated before the cutoff.
	// Maintenance only, never on the request hot path.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
