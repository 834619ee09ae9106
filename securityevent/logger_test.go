package securityevent_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stepauth/securityevent"
)

type recordingStorage struct {
	mu     sync.Mutex
	events []securityevent.Event
}

func (s *recordingStorage) Store(ctx context.Context, event securityevent.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingStorage) all() []securityevent.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]securityevent.Event(nil), s.events...)
}

func TestLoggerLog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	storage := &recordingStorage{}
	log, closeFn := securityevent.NewLogger(storage)
	defer func() { _ = closeFn(ctx) }()

	accountID := uuid.New()
	err := log.Log(ctx, accountID, securityevent.TypeOTPGenerated,
		securityevent.WithIP("203.0.113.9"),
		securityevent.WithUserAgent("test-agent"),
		securityevent.WithContext("otp_id", "abc"),
	)
	require.NoError(t, err)

	events := storage.all()
	require.Len(t, events, 1)
	assert.Equal(t, accountID, events[0].AccountID)
	assert.Equal(t, securityevent.TypeOTPGenerated, events[0].Type)
	assert.Equal(t, "203.0.113.9", events[0].IP)
	assert.Equal(t, "test-agent", events[0].UserAgent)
	assert.Equal(t, "abc", events[0].Context["otp_id"])
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.False(t, events[0].CreatedAt.IsZero())
}

func TestLoggerValidation(t *testing.T) {
	t.Parallel()

	storage := &recordingStorage{}
	log, closeFn := securityevent.NewLogger(storage)
	defer func() { _ = closeFn(context.Background()) }()

	err := log.Log(context.Background(), uuid.Nil, securityevent.TypeOTPGenerated)
	assert.ErrorIs(t, err, securityevent.ErrEventValidation)
	assert.Empty(t, storage.all())
}

func TestLoggerAsyncFlushOnClose(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	storage := &recordingStorage{}
	log, closeFn := securityevent.NewLogger(storage, securityevent.WithAsyncBuffer(64))

	accountID := uuid.New()
	for range 10 {
		require.NoError(t, log.Log(ctx, accountID, securityevent.TypeOTPFailed))
	}

	flushCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, closeFn(flushCtx))

	assert.Len(t, storage.all(), 10)
}
