package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

var ErrInvalidPolicy = errors.New("invalid security policy")

// Policy is the immutable security configuration for the step-up core.
type Policy struct {
	// OTP issuance and validation
	OTPLength       int           `env:"STEPUP_OTP_LENGTH" envDefault:"6"`         // digits per one-time passcode
	OTPValidity     time.Duration `env:"STEPUP_OTP_VALIDITY" envDefault:"24h"`     // how long a code stays valid
	OTPMaxAttempts  int           `env:"STEPUP_OTP_MAX_ATTEMPTS" envDefault:"5"`   // validation attempts per code
	DispatchTimeout time.Duration `env:"STEPUP_DISPATCH_TIMEOUT" envDefault:"10s"` // upper bound on a delivery call

	// Brute-force lockout
	LockoutThreshold      int           `env:"STEPUP_LOCKOUT_THRESHOLD" envDefault:"5"`       // failures before lock
	LockoutWindow         time.Duration `env:"STEPUP_LOCKOUT_WINDOW" envDefault:"1h"`         // trailing window for counting failures
	LockoutDuration       time.Duration `env:"STEPUP_LOCKOUT_DURATION" envDefault:"30m"`      // how long a lock lasts
	SuspiciousIPThreshold int           `env:"STEPUP_SUSPICIOUS_IP_THRESHOLD" envDefault:"3"` // distinct IPs per hour before flagging

	// Sessions
	SessionLifetime time.Duration `env:"STEPUP_SESSION_LIFETIME" envDefault:"24h"`

	// TOTP / MFA
	TOTPIssuer      string   `env:"STEPUP_TOTP_ISSUER" envDefault:"StepAuth"`
	TOTPSkew        int      `env:"STEPUP_TOTP_SKEW" envDefault:"1"` // adjacent time steps tolerated
	BackupCodeCount int      `env:"STEPUP_BACKUP_CODE_COUNT" envDefault:"10"`
	ExemptRoles     []string `env:"STEPUP_EXEMPT_ROLES" envSeparator:"," envDefault:"super_admin"` // roles that skip step-up
}

// Default returns the reference policy without consulting the environment.
func Default() Policy {
	return Policy{
		OTPLength:             6,
		OTPValidity:           24 * time.Hour,
		OTPMaxAttempts:        5,
		DispatchTimeout:       10 * time.Second,
		LockoutThreshold:      5,
		LockoutWindow:         time.Hour,
		LockoutDuration:       30 * time.Minute,
		SuspiciousIPThreshold: 3,
		SessionLifetime:       24 * time.Hour,
		TOTPIssuer:            "StepAuth",
		TOTPSkew:              1,
		BackupCodeCount:       10,
		ExemptRoles:           []string{"super_admin"},
	}
}

// Load parses the policy from environment variables.
func Load() (Policy, error) {
	var p Policy
	if err := env.Parse(&p); err != nil {
		return Policy{}, errors.Join(ErrInvalidPolicy, err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate rejects values that would disable a security invariant.
func (p Policy) Validate() error {
	if p.OTPLength < 4 {
		return fmt.Errorf("%w: OTP length must be at least 4 digits", ErrInvalidPolicy)
	}
	if p.OTPValidity <= 0 {
		return fmt.Errorf("%w: OTP validity must be positive", ErrInvalidPolicy)
	}
	if p.OTPMaxAttempts < 1 {
		return fmt.Errorf("%w: OTP max attempts must be at least 1", ErrInvalidPolicy)
	}
	if p.LockoutThreshold < 1 {
		return fmt.Errorf("%w: lockout threshold must be at least 1", ErrInvalidPolicy)
	}
	if p.LockoutWindow <= 0 || p.LockoutDuration <= 0 {
		return fmt.Errorf("%w: lockout window and duration must be positive", ErrInvalidPolicy)
	}
	if p.SessionLifetime <= 0 {
		return fmt.Errorf("%w: session lifetime must be positive", ErrInvalidPolicy)
	}
	if p.BackupCodeCount < 1 {
		return fmt.Errorf("%w: backup code count must be at least 1", ErrInvalidPolicy)
	}
	if p.TOTPSkew < 0 {
		return fmt.Errorf("%w: TOTP skew cannot be negative", ErrInvalidPolicy)
	}
	return nil
}
