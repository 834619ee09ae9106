package mfa

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment holds one account's MFA state: the shared TOTP secret, the
// hashed single-use backup codes and the enabled flag. At most one
// enrollment exists per account.
type Enrollment struct {
	AccountID        uuid.UUID  `json:"account_id"`
	Secret           string     `json:"-"`
	BackupCodeHashes []string   `json:"-"`
	Enabled          bool       `json:"enabled"`
	EnabledAt        *time.Time `json:"enabled_at,omitempty"`
	DisabledAt       *time.Time `json:"disabled_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
