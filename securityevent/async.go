package securityevent

import (
	"context"
	"sync"
	"time"
)

// asyncStorage decouples event persistence from the request path. Events are
// queued on a buffered channel and written by a single background worker;
// when the buffer is full the write happens synchronously so no event is
// ever dropped.
type asyncStorage struct {
	inner  Storage
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

const asyncStorageTimeout = 5 * time.Second

func newAsyncStorage(inner Storage, bufferSize int) *asyncStorage {
	as := &asyncStorage{
		inner:  inner,
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}

	as.wg.Add(1)
	go as.worker()

	return as
}

func (as *asyncStorage) Store(ctx context.Context, event Event) error {
	select {
	case <-as.done:
		return ErrStorageNotAvailable
	default:
	}

	select {
	case as.events <- event:
		return nil
	default:
		// Buffer full: degrade to a synchronous write instead of losing
		// the audit entry.
		return as.inner.Store(ctx, event)
	}
}

func (as *asyncStorage) worker() {
	defer as.wg.Done()

	for {
		select {
		case event := <-as.events:
			as.write(event)
		case <-as.done:
			// Drain what is left before shutting down.
			for {
				select {
				case event := <-as.events:
					as.write(event)
				default:
					return
				}
			}
		}
	}
}

func (as *asyncStorage) write(event Event) {
	// Detached from any request context so client timeouts cannot cancel
	// audit persistence.
	ctx, cancel := context.WithTimeout(context.Background(), asyncStorageTimeout)
	defer cancel()
	_ = as.inner.Store(ctx, event)
}

// Close stops the worker and flushes buffered events.
func (as *asyncStorage) Close(ctx context.Context) error {
	as.once.Do(func() {
		close(as.done)
	})

	flushed := make(chan struct{})
	go func() {
		as.wg.Wait()
		close(flushed)
	}()

	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
