package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stepauth/lockout"
	"github.com/dmitrymomot/stepauth/pkg/cache"
	"github.com/dmitrymomot/stepauth/pkg/config"
	"github.com/dmitrymomot/stepauth/securityevent"
	"github.com/dmitrymomot/stepauth/storage/memory"
)

func newTestGuard(t *testing.T, clock func() time.Time) (*lockout.Guard, *memory.SecurityEventStore) {
	t.Helper()

	events := memory.NewSecurityEventStore()
	eventLogger, closeLogger := securityevent.NewLogger(events)
	t.Cleanup(func() { _ = closeLogger(context.Background()) })

	g := lockout.NewGuard(memory.NewLockoutStore(), config.Default(),
		lockout.WithClock(clock),
		lockout.WithEventLogger(eventLogger),
	)
	return g, events
}

func TestGuardRecordAttempt(t *testing.T) {
	t.Parallel()

	t.Run("locks at the failure threshold", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		g, events := newTestGuard(t, func() time.Time { return now })
		accountID := uuid.New()

		for range 4 {
			require.NoError(t, g.RecordAttempt(context.Background(), accountID, "203.0.113.9", "", false, "bad_password"))
			locked, err := g.IsLocked(context.Background(), accountID)
			require.NoError(t, err)
			assert.False(t, locked)
		}

		require.NoError(t, g.RecordAttempt(context.Background(), accountID, "203.0.113.9", "", false, "bad_password"))
		locked, err := g.IsLocked(context.Background(), accountID)
		require.NoError(t, err)
		assert.True(t, locked)

		var sawLocked bool
		for _, e := range events.EventsFor(accountID) {
			if e.Type == securityevent.TypeAccountLocked {
				sawLocked = true
			}
		}
		assert.True(t, sawLocked)
	})

	t.Run("failures outside the window do not count", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
		g, _ := newTestGuard(t, clock.Now)
		accountID := uuid.New()

		for range 4 {
			require.NoError(t, g.RecordAttempt(context.Background(), accountID, "", "", false, "bad_password"))
		}

		// Old failures age out of the trailing window before the next one.
		clock.now = clock.now.Add(2 * time.Hour)
		require.NoError(t, g.RecordAttempt(context.Background(), accountID, "", "", false, "bad_password"))

		locked, err := g.IsLocked(context.Background(), accountID)
		require.NoError(t, err)
		assert.False(t, locked)
	})

	t.Run("success clears a standing lockout", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		g, _ := newTestGuard(t, func() time.Time { return now })
		accountID := uuid.New()

		for range 5 {
			require.NoError(t, g.RecordAttempt(context.Background(), accountID, "", "", false, "bad_password"))
		}
		locked, err := g.IsLocked(context.Background(), accountID)
		require.NoError(t, err)
		require.True(t, locked)

		require.NoError(t, g.RecordAttempt(context.Background(), accountID, "", "", true, ""))
		locked, err = g.IsLocked(context.Background(), accountID)
		require.NoError(t, err)
		assert.False(t, locked)
	})

	t.Run("rejects nil account", func(t *testing.T) {
		t.Parallel()

		g, _ := newTestGuard(t, time.Now)
		err := g.RecordAttempt(context.Background(), uuid.Nil, "", "", false, "")
		require.ErrorIs(t, err, lockout.ErrInvalidAccountID)
	})
}

func TestGuardLazyUnlock(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	g, events := newTestGuard(t, clock.Now)
	accountID := uuid.New()

	require.NoError(t, g.Lock(context.Background(), accountID, "203.0.113.9", ""))
	locked, err := g.IsLocked(context.Background(), accountID)
	require.NoError(t, err)
	require.True(t, locked)

	// Past the lockout duration the flag is cleared on the next read.
	clock.now = clock.now.Add(31 * time.Minute)
	locked, err = g.IsLocked(context.Background(), accountID)
	require.NoError(t, err)
	assert.False(t, locked)

	var sawUnlocked bool
	for _, e := range events.EventsFor(accountID) {
		if e.Type == securityevent.TypeAccountUnlocked {
			sawUnlocked = true
			assert.Equal(t, "lockout_expired", e.Context["reason"])
		}
	}
	assert.True(t, sawUnlocked)
}

func TestGuardCacheFastPath(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := cache.NewMemoryCache()
	store := memory.NewLockoutStore()
	g := lockout.NewGuard(store, config.Default(),
		lockout.WithClock(func() time.Time { return now }),
		lockout.WithCache(c),
	)
	accountID := uuid.New()

	require.NoError(t, g.Lock(context.Background(), accountID, "", ""))

	_, found, err := c.Get(context.Background(), "stepauth:lockout:"+accountID.String())
	require.NoError(t, err)
	assert.True(t, found)

	locked, err := g.IsLocked(context.Background(), accountID)
	require.NoError(t, err)
	assert.True(t, locked)

	// Cache eviction must not flip the durable answer.
	require.NoError(t, c.Delete(context.Background(), "stepauth:lockout:"+accountID.String()))
	locked, err = g.IsLocked(context.Background(), accountID)
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestGuardClearLockout(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g, events := newTestGuard(t, func() time.Time { return now })
	accountID := uuid.New()

	require.NoError(t, g.Lock(context.Background(), accountID, "", ""))
	require.NoError(t, g.ClearLockout(context.Background(), accountID))

	locked, err := g.IsLocked(context.Background(), accountID)
	require.NoError(t, err)
	assert.False(t, locked)

	// Clearing again is a no-op and does not emit a second unlock event.
	require.NoError(t, g.ClearLockout(context.Background(), accountID))
	unlocks := 0
	for _, e := range events.EventsFor(accountID) {
		if e.Type == securityevent.TypeAccountUnlocked {
			unlocks++
		}
	}
	assert.Equal(t, 1, unlocks)
}

func TestGuardDetectSuspicious(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g, events := newTestGuard(t, func() time.Time { return now })
	accountID := uuid.New()

	ips := []string{"203.0.113.1", "203.0.113.2"}
	for _, ip := range ips {
		require.NoError(t, g.RecordAttempt(context.Background(), accountID, ip, "", false, "bad_password"))
	}

	suspicious, err := g.DetectSuspicious(context.Background(), accountID, ips[1])
	require.NoError(t, err)
	assert.False(t, suspicious)

	require.NoError(t, g.RecordAttempt(context.Background(), accountID, "203.0.113.3", "", false, "bad_password"))
	suspicious, err = g.DetectSuspicious(context.Background(), accountID, "203.0.113.3")
	require.NoError(t, err)
	assert.True(t, suspicious)

	// Detection reports, it never locks.
	locked, err := g.IsLocked(context.Background(), accountID)
	require.NoError(t, err)
	assert.False(t, locked)

	var sawSuspicious bool
	for _, e := range events.EventsFor(accountID) {
		if e.Type == securityevent.TypeSuspiciousActivity {
			sawSuspicious = true
		}
	}
	assert.True(t, sawSuspicious)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }
