package lockout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stepauth/pkg/cache"
	"github.com/dmitrymomot/stepauth/pkg/config"
	"github.com/dmitrymomot/stepauth/securityevent"
)

const cacheKeyPrefix = "stepauth:lockout:"

// Guard observes login attempts and enforces brute-force lockout.
type Guard struct {
	store  Store
	cache  cache.Cache
	policy config.Policy
	logger *slog.Logger
	events securityevent.Logger
	now    func() time.Time
}

// Option configures the Guard.
type Option func(*Guard)

// WithCache installs the fast-path cache for lockout flags.
func WithCache(c cache.Cache) Option {
	return func(g *Guard) {
		g.cache = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = log
	}
}

// WithEventLogger installs the security event sink.
func WithEventLogger(events securityevent.Logger) Option {
	return func(g *Guard) {
		g.events = events
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// NewGuard creates the lockout guard. Only this guard writes lock fields.
func NewGuard(store Store, policy config.Policy, opts ...Option) *Guard {
	if store == nil {
		panic("lockout: store cannot be nil")
	}

	g := &Guard{
		store:  store,
		policy: policy,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// RecordAttempt appends a login attempt. A failure that pushes the count of
// recent failures to the threshold locks the account; a success clears any
// standing lockout.
func (g *Guard) RecordAttempt(ctx context.Context, accountID uuid.UUID, ip, userAgent string, success bool, failureReason string) error {
	if accountID == uuid.Nil {
		return ErrInvalidAccountID
	}

	now := g.now()
	attempt := &Attempt{
		ID:            uuid.New(),
		AccountID:     accountID,
		IP:            ip,
		UserAgent:     userAgent,
		Success:       success,
		FailureReason: failureReason,
		CreatedAt:     now,
	}
	if err := g.store.RecordAttempt(ctx, attempt); err != nil {
		return errors.Join(ErrFailedToRecord, err)
	}

	if success {
		return g.ClearLockout(ctx, accountID)
	}

	failures, err := g.store.CountFailuresSince(ctx, accountID, now.Add(-g.policy.LockoutWindow))
	if err != nil {
		return errors.Join(ErrFailedToRecord, err)
	}
	if failures >= g.policy.LockoutThreshold {
		return g.Lock(ctx, accountID, ip, userAgent)
	}
	return nil
}

// Lock marks the account locked for the configured duration and seeds the
// cache fast path with a TTL equal to the remaining lockout.
func (g *Guard) Lock(ctx context.Context, accountID uuid.UUID, ip, userAgent string) error {
	if accountID == uuid.Nil {
		return ErrInvalidAccountID
	}

	now := g.now()
	lockedUntil := now.Add(g.policy.LockoutDuration)
	if err := g.store.SetLock(ctx, accountID, now, lockedUntil); err != nil {
		return errors.Join(ErrFailedToLock, err)
	}

	g.cacheSeed(ctx, accountID, g.policy.LockoutDuration)
	g.logEvent(ctx, accountID, securityevent.TypeAccountLocked,
		securityevent.WithIP(ip),
		securityevent.WithUserAgent(userAgent),
		securityevent.WithContext("locked_until", lockedUntil),
	)
	return nil
}

// IsLocked reports whether the account is currently locked. The cache is
// consulted first; misses and cache errors fall through to the durable
// state. A lock whose window has passed is lazily cleared.
func (g *Guard) IsLocked(ctx context.Context, accountID uuid.UUID) (bool, error) {
	state, err := g.Status(ctx, accountID)
	if err != nil {
		return false, err
	}
	return state.IsLocked(g.now()), nil
}

// Status returns the account's lockout state with lazy unlock applied: if
// the lock has expired it is cleared in the durable store before returning.
func (g *Guard) Status(ctx context.Context, accountID uuid.UUID) (*State, error) {
	if accountID == uuid.Nil {
		return nil, ErrInvalidAccountID
	}

	now := g.now()

	if g.cache != nil {
		_, found, err := g.cache.Get(ctx, cacheKeyPrefix+accountID.String())
		if err != nil {
			g.logger.WarnContext(ctx, "lockout cache read failed, falling through to store", "error", err)
		} else if found {
			// The cached flag carries its own TTL, so a hit means the
			// lock is still in force; the durable row has the details.
			state, err := g.store.GetState(ctx, accountID)
			if err != nil {
				return nil, errors.Join(ErrFailedToCheck, err)
			}
			if state.IsLocked(now) {
				return state, nil
			}
			// Stale cache entry: the durable authority disagrees.
			g.cacheEvict(ctx, accountID)
		}
	}

	state, err := g.store.GetState(ctx, accountID)
	if err != nil {
		return nil, errors.Join(ErrFailedToCheck, err)
	}

	if state.Locked && !state.IsLocked(now) {
		// Lockout window has passed: clear lazily.
		if err := g.store.ClearLock(ctx, accountID); err != nil {
			return nil, errors.Join(ErrFailedToUnlock, err)
		}
		g.cacheEvict(ctx, accountID)
		g.logEvent(ctx, accountID, securityevent.TypeAccountUnlocked,
			securityevent.WithContext("reason", "lockout_expired"))
		return &State{AccountID: accountID}, nil
	}

	if state.IsLocked(now) && g.cache != nil && state.LockedUntil != nil {
		g.cacheSeed(ctx, accountID, state.LockedUntil.Sub(now))
	}

	return state, nil
}

// ClearLockout removes the lock and evicts the cache flag. Idempotent.
func (g *Guard) ClearLockout(ctx context.Context, accountID uuid.UUID) error {
	if accountID == uuid.Nil {
		return ErrInvalidAccountID
	}

	state, err := g.store.GetState(ctx, accountID)
	if err != nil {
		return errors.Join(ErrFailedToUnlock, err)
	}

	if err := g.store.ClearLock(ctx, accountID); err != nil {
		return errors.Join(ErrFailedToUnlock, err)
	}
	g.cacheEvict(ctx, accountID)

	if state.Locked {
		g.logEvent(ctx, accountID, securityevent.TypeAccountUnlocked,
			securityevent.WithContext("reason", "explicit_clear"))
	}
	return nil
}

// DetectSuspicious flags accounts attacked from many distinct IPs within the
// trailing hour. It records a security event but deliberately does not lock:
// that policy decision belongs to the caller.
func (g *Guard) DetectSuspicious(ctx context.Context, accountID uuid.UUID, ip string) (bool, error) {
	if accountID == uuid.Nil {
		return false, ErrInvalidAccountID
	}

	distinct, err := g.store.CountDistinctIPsSince(ctx, accountID, g.now().Add(-time.Hour))
	if err != nil {
		return false, errors.Join(ErrFailedToCheck, err)
	}

	if distinct < g.policy.SuspiciousIPThreshold {
		return false, nil
	}

	g.logEvent(ctx, accountID, securityevent.TypeSuspiciousActivity,
		securityevent.WithIP(ip),
		securityevent.WithContext("distinct_ips", distinct),
	)
	return true, nil
}

func (g *Guard) cacheSeed(ctx context.Context, accountID uuid.UUID, ttl time.Duration) {
	if g.cache == nil || ttl <= 0 {
		return
	}
	if err := g.cache.Set(ctx, cacheKeyPrefix+accountID.String(), "locked", ttl); err != nil {
		g.logger.WarnContext(ctx, "lockout cache write failed", "error", err)
	}
}

func (g *Guard) cacheEvict(ctx context.Context, accountID uuid.UUID) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Delete(ctx, cacheKeyPrefix+accountID.String()); err != nil {
		g.logger.WarnContext(ctx, "lockout cache eviction failed", "error", err)
	}
}

func (g *Guard) logEvent(ctx context.Context, accountID uuid.UUID, eventType securityevent.Type, opts ...securityevent.Option) {
	if g.events == nil {
		return
	}
	if err := g.events.Log(ctx, accountID, eventType, opts...); err != nil {
		g.logger.ErrorContext(ctx, "failed to write security event",
			"event_type", string(eventType), "error", err)
	}
}
