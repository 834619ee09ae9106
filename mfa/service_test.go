package mfa_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stepauth/mfa"
	"github.com/dmitrymomot/stepauth/pkg/config"
	"github.com/dmitrymomot/stepauth/pkg/totp"
	"github.com/dmitrymomot/stepauth/storage/memory"
)

func newTestService(t *testing.T, clock func() time.Time) *mfa.Service {
	t.Helper()
	return mfa.NewService(memory.NewMFAStore(), config.Default(), mfa.WithClock(clock))
}

func TestServiceSetup(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("returns secret, uri, qr and backup codes", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, clock)
		result, err := svc.Setup(context.Background(), uuid.New(), "user@example.com")
		require.NoError(t, err)

		assert.NotEmpty(t, result.Secret)
		assert.Contains(t, result.ProvisioningURI, "otpauth://totp/")
		assert.Contains(t, result.ProvisioningURI, "user%40example.com")
		assert.NotEmpty(t, result.QRCodeBase64)
		assert.Len(t, result.BackupCodes, 10)
		for _, code := range result.BackupCodes {
			assert.Len(t, code, 16)
		}
	})

	t.Run("rerun before enable replaces the material", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, clock)
		accountID := uuid.New()

		first, err := svc.Setup(context.Background(), accountID, "user@example.com")
		require.NoError(t, err)
		second, err := svc.Setup(context.Background(), accountID, "user@example.com")
		require.NoError(t, err)
		assert.NotEqual(t, first.Secret, second.Secret)

		// Only the latest secret verifies.
		code, err := totp.GenerateCode(second.Secret, now)
		require.NoError(t, err)
		ok, err := svc.Verify(context.Background(), accountID, code)
		require.NoError(t, err)
		assert.True(t, ok)

		stale, err := totp.GenerateCode(first.Secret, now)
		require.NoError(t, err)
		if stale != code {
			ok, err = svc.Verify(context.Background(), accountID, stale)
			require.NoError(t, err)
			assert.False(t, ok)
		}
	})

	t.Run("rejected once enabled", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, clock)
		accountID := uuid.New()
		result, err := svc.Setup(context.Background(), accountID, "user@example.com")
		require.NoError(t, err)

		code, err := totp.GenerateCode(result.Secret, now)
		require.NoError(t, err)
		enabled, err := svc.Enable(context.Background(), accountID, code)
		require.NoError(t, err)
		require.True(t, enabled)

		_, err = svc.Setup(context.Background(), accountID, "user@example.com")
		require.ErrorIs(t, err, mfa.ErrAlreadyEnabled)
	})

	t.Run("requires account name", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, clock)
		_, err := svc.Setup(context.Background(), uuid.New(), "")
		require.ErrorIs(t, err, mfa.ErrMissingAccountName)
	})
}

func TestServiceVerify(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("accepts the current totp code", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, func() time.Time { return now })
		accountID := uuid.New()
		setup, err := svc.Setup(context.Background(), accountID, "user@example.com")
		require.NoError(t, err)

		code, err := totp.GenerateCode(setup.Secret, now)
		require.NoError(t, err)

		ok, err := svc.Verify(context.Background(), accountID, code)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("accepts codes within the skew window", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, func() time.Time { return now })
		accountID := uuid.New()
		setup, err := svc.Setup(context.Background(), accountID, "user@example.com")
		require.NoError(t, err)

		previous, err := totp.GenerateCode(setup.Secret, now.Add(-30*time.Second))
		require.NoError(t, err)

		ok, err := svc.Verify(context.Background(), accountID, previous)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects codes outside the skew window", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, func() time.Time { return now })
		accountID := uuid.New()
		setup, err := svc.Setup(context.Background(), accountID, "user@example.com")
		require.NoError(t, err)

		current, err := totp.GenerateCode(setup.Secret, now)
		require.NoError(t, err)
		old, err := totp.GenerateCode(setup.Secret, now.Add(-5*time.Minute))
		require.NoError(t, err)
		if old == current {
			t.Skip("code collision across time steps")
		}

		ok, err := svc.Verify(context.Background(), accountID, old)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("backup code works exactly once", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, func() time.Time { return now })
		accountID := uuid.New()
		setup, err := svc.Setup(context.Background(), accountID, "user@example.com")
		require.NoError(t, err)

		backup := setup.BackupCodes[0]
		ok, err := svc.Verify(context.Background(), accountID, backup)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.Verify(context.Background(), accountID, backup)
		require.NoError(t, err)
		assert.False(t, ok)

		// Other backup codes stay usable.
		ok, err = svc.Verify(context.Background(), accountID, setup.BackupCodes[1])
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("backup codes match case-insensitively", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, func() time.Time { return now })
		accountID := uuid.New()
		setup, err := svc.Setup(context.Background(), accountID, "user@example.com")
		require.NoError(t, err)

		ok, err := svc.Verify(context.Background(), accountID, strings.ToLower(setup.BackupCodes[0]))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unenrolled account", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, func() time.Time { return now })
		_, err := svc.Verify(context.Background(), uuid.New(), "123456")
		require.ErrorIs(t, err, mfa.ErrNotEnrolled)
	})
}

func TestServiceEnableDisable(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("enable requires a valid code", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, func() time.Time { return now })
		accountID := uuid.New()
		setup, err := svc.Setup(context.Background(), accountID, "user@example.com")
		require.NoError(t, err)

		enabled, err := svc.Enable(context.Background(), accountID, "000000")
		require.NoError(t, err)
		assert.False(t, enabled)

		isEnabled, err := svc.IsEnabled(context.Background(), accountID)
		require.NoError(t, err)
		assert.False(t, isEnabled)

		code, err := totp.GenerateCode(setup.Secret, now)
		require.NoError(t, err)
		enabled, err = svc.Enable(context.Background(), accountID, code)
		require.NoError(t, err)
		assert.True(t, enabled)

		isEnabled, err = svc.IsEnabled(context.Background(), accountID)
		require.NoError(t, err)
		assert.True(t, isEnabled)
	})

	t.Run("disable turns mfa off", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, func() time.Time { return now })
		accountID := uuid.New()
		setup, err := svc.Setup(context.Background(), accountID, "user@example.com")
		require.NoError(t, err)

		code, err := totp.GenerateCode(setup.Secret, now)
		require.NoError(t, err)
		enabled, err := svc.Enable(context.Background(), accountID, code)
		require.NoError(t, err)
		require.True(t, enabled)

		require.NoError(t, svc.Disable(context.Background(), accountID))
		isEnabled, err := svc.IsEnabled(context.Background(), accountID)
		require.NoError(t, err)
		assert.False(t, isEnabled)
	})

	t.Run("is enabled is false for unknown account", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, func() time.Time { return now })
		isEnabled, err := svc.IsEnabled(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.False(t, isEnabled)
	})
}

func TestRequiresStepUp(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, time.Now)

	tests := []struct {
		name         string
		accountLevel string
		roleName     string
		want         bool
	}{
		{"regular user", "user", "member", true},
		{"exempt role name", "user", "super_admin", false},
		{"exempt account level", "super_admin", "member", false},
		{"case insensitive", "user", "Super_Admin", false},
		{"whitespace trimmed", "user", " super_admin ", false},
		{"empty identity", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, svc.RequiresStepUp(tt.accountLevel, tt.roleName))
		})
	}
}
