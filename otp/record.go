package otp

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus tracks the outcome of dispatching the code to the user.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Invalidation reasons recorded on terminal records.
const (
	ReasonMaxAttemptsExceeded = "max_attempts_exceeded"
	ReasonReplaced            = "replaced"
	ReasonAdminRevoked        = "admin_revoked"
)

// Record is one OTP issuance. The plaintext code is transient: populated at
// generation for dispatch, cleared as soon as delivery succeeds or the record
// leaves the active state.
type Record struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"account_id"`
	CodeHash      string    `json:"-"`
	PlaintextCode string    `json:"-"`

	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`

	Validated   bool       `json:"validated"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`

	AttemptCount int `json:"attempt_count"`
	MaxAttempts  int `json:"max_attempts"`

	// Set after successful validation, for audit traceability.
	SessionToken     *string    `json:"-"`
	SessionExpiresAt *time.Time `json:"session_expires_at,omitempty"`

	DeliveryTarget string         `json:"delivery_target"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
	DeliveryError  *string        `json:"delivery_error,omitempty"`

	InvalidatedAt      *time.Time `json:"invalidated_at,omitempty"`
	InvalidationReason *string    `json:"invalidation_reason,omitempty"`

	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// IsActive reports whether the record can still accept validation attempts
// at the given time. Expiry is evaluated lazily here, not by a sweeper.
func (r *Record) IsActive(now time.Time) bool {
	if r == nil {
		return false
	}
	return !r.Validated && r.InvalidatedAt == nil && now.Before(r.ExpiresAt)
}
