package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stepauth/otp"
)

// OTPStore implements otp.Store with an in-process map. The single mutex is
// the critical section that makes Create's active-record check and
// IncrementAttempts race-free.
type OTPStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*otp.Record
}

// NewOTPStore creates an empty OTP store.
func NewOTPStore() *OTPStore {
	return &OTPStore{records: make(map[uuid.UUID]*otp.Record)}
}

func (s *OTPStore) Create(ctx context.Context, record *otp.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The new record's generation time is the reference point, so the check
	// agrees with whatever clock the caller runs on.
	for _, existing := range s.records {
		if existing.AccountID == record.AccountID && existing.IsActive(record.GeneratedAt) {
			return otp.ErrActiveRecordExists
		}
	}

	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *OTPStore) GetActive(ctx context.Context, accountID uuid.UUID, now time.Time) (*otp.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.AccountID == accountID && record.IsActive(now) {
			clone := *record
			return &clone, nil
		}
	}
	return nil, otp.ErrNoActiveOTP
}

func (s *OTPStore) GetByID(ctx context.Context, id uuid.UUID) (*otp.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return nil, otp.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *OTPStore) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return 0, otp.ErrRecordNotFound
	}
	record.AttemptCount++
	return record.AttemptCount, nil
}

func (s *OTPStore) MarkValidated(ctx context.Context, id uuid.UUID, at time.Time, sessionToken string, sessionExpiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return otp.ErrRecordNotFound
	}

	record.Validated = true
	record.ValidatedAt = &at
	record.SessionToken = &sessionToken
	record.SessionExpiresAt = &sessionExpiresAt
	record.PlaintextCode = ""
	return nil
}

func (s *OTPStore) MarkDelivery(ctx context.Context, id uuid.UUID, status otp.DeliveryStatus, deliveryError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return otp.ErrRecordNotFound
	}

	record.DeliveryStatus = status
	if deliveryError != "" {
		record.DeliveryError = &deliveryError
	} else {
		record.DeliveryError = nil
	}
	if status == otp.DeliverySent {
		record.PlaintextCode = ""
	}
	return nil
}

func (s *OTPStore) Invalidate(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return otp.ErrRecordNotFound
	}
	if record.InvalidatedAt != nil {
		// Already terminal: keep the original timestamp and reason.
		return nil
	}

	record.InvalidatedAt = &at
	record.InvalidationReason = &reason
	record.PlaintextCode = ""
	return nil
}

func (s *OTPStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if record.GeneratedAt.Before(cutoff) && !record.IsActive(cutoff) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}
