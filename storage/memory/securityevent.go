package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stepauth/securityevent"
)

// SecurityEventStore implements securityevent.Storage with an append-only
// in-process slice. It also offers read helpers for tests and diagnostics.
type SecurityEventStore struct {
	mu     sync.Mutex
	events []securityevent.Event
}

// NewSecurityEventStore creates an empty event store.
func NewSecurityEventStore() *SecurityEventStore {
	return &SecurityEventStore{}
}

func (s *SecurityEventStore) Store(ctx context.Context, event securityevent.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of all recorded events in insertion order.
func (s *SecurityEventStore) Events() []securityevent.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.events)
}

// EventsFor returns the events recorded for one account, in insertion order.
func (s *SecurityEventStore) EventsFor(accountID uuid.UUID) []securityevent.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []securityevent.Event
	for _, e := range s.events {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out
}
