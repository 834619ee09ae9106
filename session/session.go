package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is one completed step-up: an opaque token bound to an account until
// expiry or explicit invalidation.
type Session struct {
	Token     string    `json:"token"`
	AccountID uuid.UUID `json:"account_id"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has passed its expiry at the given time.
func (s *Session) IsExpired(now time.Time) bool {
	return s != nil && now.After(s.ExpiresAt)
}

// Remaining returns the lifetime left at the given time, zero if expired.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s == nil || s.IsExpired(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
