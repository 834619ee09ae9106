package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stepauth/mfa"
)

// MFAStore implements mfa.Store with an in-process map.
type MFAStore struct {
	mu          sync.Mutex
	enrollments map[uuid.UUID]*mfa.Enrollment
}

// NewMFAStore creates an empty MFA enrollment store.
func NewMFAStore() *MFAStore {
	return &MFAStore{enrollments: make(map[uuid.UUID]*mfa.Enrollment)}
}

func (s *MFAStore) Upsert(ctx context.Context, enrollment *mfa.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *enrollment
	clone.BackupCodeHashes = slices.Clone(enrollment.BackupCodeHashes)
	s.enrollments[enrollment.AccountID] = &clone
	return nil
}

func (s *MFAStore) Get(ctx context.Context, accountID uuid.UUID) (*mfa.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, ok := s.enrollments[accountID]
	if !ok {
		return nil, mfa.ErrNotEnrolled
	}

	clone := *enrollment
	clone.BackupCodeHashes = slices.Clone(enrollment.BackupCodeHashes)
	return &clone, nil
}

func (s *MFAStore) SetEnabled(ctx context.Context, accountID uuid.UUID, enabled bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, ok := s.enrollments[accountID]
	if !ok {
		return mfa.ErrNotEnrolled
	}

	enrollment.Enabled = enabled
	enrollment.UpdatedAt = at
	if enabled {
		enrollment.EnabledAt = &at
	} else {
		enrollment.DisabledAt = &at
	}
	return nil
}

func (s *MFAStore) RemoveBackupCode(ctx context.Context, accountID uuid.UUID, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, ok := s.enrollments[accountID]
	if !ok {
		return false, mfa.ErrNotEnrolled
	}

	idx := slices.Index(enrollment.BackupCodeHashes, hash)
	if idx < 0 {
		return false, nil
	}
	enrollment.BackupCodeHashes = slices.Delete(enrollment.BackupCodeHashes, idx, idx+1)
	return true, nil
}
