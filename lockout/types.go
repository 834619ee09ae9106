package lockout

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one append-only login attempt row. Attempts are never updated
// or deleted outside of retention cleanup.
type Attempt struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"account_id"`
	IP            string    `json:"ip,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
	Success       bool      `json:"success"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// State is the account's lockout overlay.
type State struct {
	AccountID   uuid.UUID  `json:"account_id"`
	Locked      bool       `json:"locked"`
	LockedAt    *time.Time `json:"locked_at,omitempty"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// IsLocked applies the lazy-unlock rule: a lock whose LockedUntil has passed
// no longer counts, even before the flag is explicitly cleared.
func (s *State) IsLocked(now time.Time) bool {
	if s == nil || !s.Locked {
		return false
	}
	if s.LockedUntil != nil && now.After(*s.LockedUntil) {
		return false
	}
	return true
}
