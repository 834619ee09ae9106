package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stepauth/pkg/cache"
	"github.com/dmitrymomot/stepauth/pkg/codec"
	"github.com/dmitrymomot/stepauth/securityevent"
)

const cacheKeyPrefix = "stepauth:session:"

// Manager issues, validates and invalidates step-up sessions.
type Manager struct {
	store    Store
	cache    cache.Cache
	lifetime time.Duration
	logger   *slog.Logger
	events   securityevent.Logger
	now      func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithCache installs the fast-path cache. Without one, every validation goes
// to the durable store.
func WithCache(c cache.Cache) Option {
	return func(m *Manager) {
		m.cache = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = log
	}
}

// WithEventLogger installs the security event sink.
func WithEventLogger(events securityevent.Logger) Option {
	return func(m *Manager) {
		m.events = events
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a session manager. The durable store is required; the
// cache is an optional accelerator.
func NewManager(store Store, lifetime time.Duration, opts ...Option) *Manager {
	if store == nil {
		panic("session: store cannot be nil")
	}

	m := &Manager{
		store:    store,
		lifetime: lifetime,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Create issues a new session for the account and mirrors it into the cache.
func (m *Manager) Create(ctx context.Context, accountID uuid.UUID, ip, userAgent string) (*Session, error) {
	if accountID == uuid.Nil {
		return nil, ErrInvalidAccountID
	}

	token, err := codec.Token()
	if err != nil {
		return nil, errors.Join(ErrFailedToCreate, err)
	}

	now := m.now()
	s := &Session{
		Token:     token,
		AccountID: accountID,
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(m.lifetime),
	}

	if err := m.store.Create(ctx, s); err != nil {
		return nil, errors.Join(ErrFailedToCreate, err)
	}

	m.cacheSet(ctx, s)
	m.logEvent(ctx, accountID, securityevent.TypeSessionCreated,
		securityevent.WithIP(ip),
		securityevent.WithUserAgent(userAgent),
	)

	return s, nil
}

// Validate reports whether the token belongs to a live session and to which
// account. The cache is consulted first; a miss or cache error falls through
// to the durable store, which is authoritative. A durable hit repopulates the
// cache with the remaining lifetime.
func (m *Manager) Validate(ctx context.Context, token string) (uuid.UUID, bool, error) {
	if token == "" {
		return uuid.Nil, false, nil
	}

	if m.cache != nil {
		value, found, err := m.cache.Get(ctx, cacheKeyPrefix+token)
		if err != nil {
			m.logger.WarnContext(ctx, "session cache read failed, falling through to store", "error", err)
		} else if found {
			if accountID, err := uuid.Parse(value); err == nil {
				return accountID, true, nil
			}
		}
	}

	s, err := m.store.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, errors.Join(ErrFailedToValidate, err)
	}

	if s.IsExpired(m.now()) {
		return uuid.Nil, false, nil
	}

	m.cacheSet(ctx, s)
	return s.AccountID, true, nil
}

// Invalidate removes the session from the durable store and the cache.
// Idempotent: invalidating an unknown token succeeds.
func (m *Manager) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	// Only audited when the token actually existed.
	existing, err := m.store.Get(ctx, token)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return errors.Join(ErrFailedToInvalidate, err)
	}

	if err := m.store.Delete(ctx, token); err != nil {
		return errors.Join(ErrFailedToInvalidate, err)
	}

	if m.cache != nil {
		if err := m.cache.Delete(ctx, cacheKeyPrefix+token); err != nil {
			m.logger.WarnContext(ctx, "session cache eviction failed", "error", err)
		}
	}

	if existing != nil {
		m.logEvent(ctx, existing.AccountID, securityevent.TypeSessionInvalidated)
	}
	return nil
}

// CleanupExpired removes expired durable rows. Maintenance only.
func (m *Manager) CleanupExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx)
}

func (m *Manager) cacheSet(ctx context.Context, s *Session) {
	if m.cache == nil {
		return
	}
	remaining := s.Remaining(m.now())
	if remaining <= 0 {
		return
	}
	if err := m.cache.Set(ctx, cacheKeyPrefix+s.Token, s.AccountID.String(), remaining); err != nil {
		m.logger.WarnContext(ctx, "session cache write failed", "error", err)
	}
}

func (m *Manager) logEvent(ctx context.Context, accountID uuid.UUID, eventType securityevent.Type, opts ...securityevent.Option) {
	if m.events == nil {
		return
	}
	if err := m.events.Log(ctx, accountID, eventType, opts...); err != nil {
		m.logger.ErrorContext(ctx, "failed to write security event",
			"event_type", string(eventType), "error", err)
	}
}
