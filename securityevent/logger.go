package securityevent

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Logger records security events.
type Logger interface {
	Log(ctx context.Context, accountID uuid.UUID, eventType Type, opts ...Option) error
}

type logger struct {
	storage         Storage
	asyncBufferSize int
	closeFunc       func(context.Context) error
}

// LoggerOption configures the logger.
type LoggerOption func(*logger)

// WithAsyncBuffer moves event writes to a background worker with the given
// buffer size. When the buffer is full, writes fall back to synchronous.
func WithAsyncBuffer(size int) LoggerOption {
	return func(l *logger) {
		l.asyncBufferSize = size
	}
}

// NewLogger creates a security event logger backed by storage. The returned
// close function flushes the async buffer, if one was configured.
func NewLogger(storage Storage, opts ...LoggerOption) (Logger, func(context.Context) error) {
	if storage == nil {
		panic("securityevent: storage cannot be nil")
	}

	l := &logger{
		storage:   storage,
		closeFunc: func(context.Context) error { return nil },
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.asyncBufferSize > 0 {
		async := newAsyncStorage(l.storage, l.asyncBufferSize)
		l.storage = async
		l.closeFunc = async.Close
	}

	return l, l.closeFunc
}

func (l *logger) Log(ctx context.Context, accountID uuid.UUID, eventType Type, opts ...Option) error {
	event := Event{
		ID:        uuid.New(),
		AccountID: accountID,
		Type:      eventType,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return err
	}

	return l.storage.Store(ctx, event)
}
