package securityevent

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies a security-relevant transition.
type Type string

const (
	TypeOTPGenerated       Type = "otp_generated"
	TypeOTPSent            Type = "otp_sent"
	TypeOTPSendFailed      Type = "otp_send_failed"
	TypeOTPValidated       Type = "otp_validated"
	TypeOTPFailed          Type = "otp_validation_failed"
	TypeOTPExhausted       Type = "otp_attempts_exhausted"
	TypeOTPInvalidated     Type = "otp_invalidated"
	TypeAccountLocked      Type = "account_locked"
	TypeAccountUnlocked    Type = "account_unlocked"
	TypeSuspiciousActivity Type = "suspicious_activity"
	TypeMFAEnabled         Type = "mfa_enabled"
	TypeMFADisabled        Type = "mfa_disabled"
	TypeMFAVerified        Type = "mfa_verified"
	TypeMFAFailed          Type = "mfa_verification_failed"
	TypeSessionCreated     Type = "session_created"
	TypeSessionInvalidated Type = "session_invalidated"
)

// Event is a single append-only audit entry.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	AccountID uuid.UUID      `json:"account_id"`
	Type      Type           `json:"type"`
	IP        string         `json:"ip,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Validate checks the event carries its required fields.
func (e *Event) Validate() error {
	if e.Type == "" {
		return fmt.Errorf("%w: type is required", ErrEventValidation)
	}
	if e.AccountID == uuid.Nil {
		return fmt.Errorf("%w: account id is required", ErrEventValidation)
	}
	return nil
}

// Option applies optional fields to an Event during creation.
type Option func(*Event)

// WithIP records the source IP of the request that caused the event.
func WithIP(ip string) Option {
	return func(e *Event) {
		e.IP = ip
	}
}

// WithUserAgent records the user agent of the request that caused the event.
func WithUserAgent(ua string) Option {
	return func(e *Event) {
		e.UserAgent = ua
	}
}

// WithContext attaches a free-form key/value pair to the event.
func WithContext(key string, value any) Option {
	return func(e *Event) {
		if e.Context == nil {
			e.Context = make(map[string]any)
		}
		e.Context[key] = value
	}
}
