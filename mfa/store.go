package mfa

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists MFA enrollments.
type Store interface {
	// Upsert creates the enrollment if absent, otherwise replaces the
	// secret and backup codes. Must be atomic with respect to concurrent
	// upserts for the same account.
	Upsert(ctx context.Context, enrollment *Enrollment) error

	// Get returns the account's enrollment, or ErrNotEnrolled.
	Get(ctx context.Context, accountID uuid.UUID) (*Enrollment, error)

	// SetEnabled flips the enabled flag and records the transition time.
	SetEnabled(ctx context.Context, accountID uuid.UUID, enabled bool, at time.Time) error

	// RemoveBackupCode atomically removes the exact stored hash from the
	// account's backup code set. Returns false when the hash was already
	// gone, which means a concurrent verification consumed it first.
	RemoveBackupCode(ctx context.Context, accountID uuid.UUID, hash string) (bool, error)
}
