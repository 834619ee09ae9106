package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stepauth/pkg/config"
)

func TestDefaultPolicy(t *testing.T) {
	t.Parallel()

	p := config.Default()
	require.NoError(t, p.Validate())

	assert.Equal(t, 6, p.OTPLength)
	assert.Equal(t, 24*time.Hour, p.OTPValidity)
	assert.Equal(t, 5, p.OTPMaxAttempts)
	assert.Equal(t, 5, p.LockoutThreshold)
	assert.Equal(t, time.Hour, p.LockoutWindow)
	assert.Equal(t, 24*time.Hour, p.SessionLifetime)
}

func TestPolicyValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Policy)
	}{
		{"too short OTP", func(p *config.Policy) { p.OTPLength = 3 }},
		{"zero validity", func(p *config.Policy) { p.OTPValidity = 0 }},
		{"zero attempts", func(p *config.Policy) { p.OTPMaxAttempts = 0 }},
		{"zero lockout threshold", func(p *config.Policy) { p.LockoutThreshold = 0 }},
		{"negative lockout duration", func(p *config.Policy) { p.LockoutDuration = -time.Minute }},
		{"zero session lifetime", func(p *config.Policy) { p.SessionLifetime = 0 }},
		{"zero backup codes", func(p *config.Policy) { p.BackupCodeCount = 0 }},
		{"negative skew", func(p *config.Policy) { p.TOTPSkew = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := config.Default()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), config.ErrInvalidPolicy)
		})
	}
}
