package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stepauth/lockout"
)

// LockoutStore implements lockout.Store with in-process slices and maps.
type LockoutStore struct {
	mu       sync.Mutex
	attempts []*lockout.Attempt
	states   map[uuid.UUID]*lockout.State
}

// NewLockoutStore creates an empty lockout store.
func NewLockoutStore() *LockoutStore {
	return &LockoutStore{states: make(map[uuid.UUID]*lockout.State)}
}

func (s *LockoutStore) RecordAttempt(ctx context.Context, attempt *lockout.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *attempt
	s.attempts = append(s.attempts, &clone)
	return nil
}

func (s *LockoutStore) CountFailuresSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, a := range s.attempts {
		if a.AccountID == accountID && !a.Success && !a.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *LockoutStore) CountDistinctIPsSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ips := make(map[string]struct{})
	for _, a := range s.attempts {
		if a.AccountID == accountID && a.IP != "" && !a.CreatedAt.Before(since) {
			ips[a.IP] = struct{}{}
		}
	}
	return len(ips), nil
}

func (s *LockoutStore) GetState(ctx context.Context, accountID uuid.UUID) (*lockout.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[accountID]
	if !ok {
		return &lockout.State{AccountID: accountID}, nil
	}
	clone := *state
	return &clone, nil
}

func (s *LockoutStore) SetLock(ctx context.Context, accountID uuid.UUID, lockedAt, lockedUntil time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[accountID] = &lockout.State{
		AccountID:   accountID,
		Locked:      true,
		LockedAt:    &lockedAt,
		LockedUntil: &lockedUntil,
	}
	return nil
}

func (s *LockoutStore) ClearLock(ctx context.Context, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, accountID)
	return nil
}
