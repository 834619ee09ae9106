package otp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stepauth/dispatch"
	"github.com/dmitrymomot/stepauth/pkg/codec"
	"github.com/dmitrymomot/stepauth/pkg/config"
	"github.com/dmitrymomot/stepauth/securityevent"
	"github.com/dmitrymomot/stepauth/session"
)

// User-safe result messages. These never reveal account existence or hash
// comparison details.
const (
	MsgCodeValidated     = "code accepted"
	MsgInvalidCode       = "invalid code"
	MsgNoActiveCode      = "no active verification code, request a new one"
	MsgAttemptsExhausted = "too many failed attempts, request a new code"
)

// IssueResult is the outcome of Generate or GenerateOrReuse. PlaintextCode is
// populated only for freshly generated records and only so the caller can
// dispatch it; reused records return metadata alone.
type IssueResult struct {
	OTPID         uuid.UUID
	PlaintextCode string
	ExpiresAt     time.Time
	IsExisting    bool
}

// ValidationResult is the structured outcome of a validation attempt.
// Security-relevant failures are reported here, not as errors.
type ValidationResult struct {
	Success           bool
	Message           string
	SessionToken      string
	SessionExpiresAt  time.Time
	AttemptsRemaining int
}

// Service manages the OTP lifecycle.
type Service struct {
	store      Store
	sessions   *session.Manager
	dispatcher *dispatch.Dispatcher
	policy     config.Policy
	logger     *slog.Logger
	events     securityevent.Logger
	now        func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		s.logger = log
	}
}

// WithEventLogger installs the security event sink.
func WithEventLogger(events securityevent.Logger) Option {
	return func(s *Service) {
		s.events = events
	}
}

// WithDispatcher installs the delivery dispatcher used by Dispatch.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(s *Service) {
		s.dispatcher = d
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the OTP lifecycle manager. Store and session manager
// are required; policy thresholds are fixed for the life of the service.
func NewService(store Store, sessions *session.Manager, policy config.Policy, opts ...Option) *Service {
	if store == nil {
		panic("otp: store cannot be nil")
	}
	if sessions == nil {
		panic("otp: session manager cannot be nil")
	}

	s := &Service{
		store:    store,
		sessions: sessions,
		policy:   policy,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Generate creates a new OTP record for the account and returns the
// plaintext exactly once for immediate dispatch. Fails with
// ErrActiveRecordExists if the account already has an active record.
func (s *Service) Generate(ctx context.Context, accountID uuid.UUID, deliveryTarget, ip, userAgent string) (*IssueResult, error) {
	if accountID == uuid.Nil {
		return nil, ErrInvalidAccountID
	}
	if deliveryTarget == "" {
		return nil, ErrEmptyDeliveryTarget
	}

	code, err := codec.Digits(s.policy.OTPLength)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}
	hash, err := codec.Hash(code)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}

	now := s.now()
	record := &Record{
		ID:             uuid.New(),
		AccountID:      accountID,
		CodeHash:       hash,
		PlaintextCode:  code,
		GeneratedAt:    now,
		ExpiresAt:      now.Add(s.policy.OTPValidity),
		MaxAttempts:    s.policy.OTPMaxAttempts,
		DeliveryTarget: deliveryTarget,
		DeliveryStatus: DeliveryPending,
		IP:             ip,
		UserAgent:      userAgent,
	}

	// Persistence must succeed before any dispatch is attempted; a record
	// that was never stored cannot be validated.
	if err := s.store.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logEvent(ctx, accountID, securityevent.TypeOTPGenerated,
		securityevent.WithIP(ip),
		securityevent.WithUserAgent(userAgent),
		securityevent.WithContext("otp_id", record.ID.String()),
	)

	return &IssueResult{
		OTPID:         record.ID,
		PlaintextCode: code,
		ExpiresAt:     record.ExpiresAt,
	}, nil
}

// GenerateOrReuse returns the account's existing active record, if any,
// instead of minting a new one. Bounds OTP spam and duplicate SMS cost: the
// reused result carries metadata only, never the plaintext.
func (s *Service) GenerateOrReuse(ctx context.Context, accountID uuid.UUID, deliveryTarget, ip, userAgent string) (*IssueResult, error) {
	if accountID == uuid.Nil {
		return nil, ErrInvalidAccountID
	}

	existing, err := s.store.GetActive(ctx, accountID, s.now())
	if err == nil {
		return &IssueResult{
			OTPID:      existing.ID,
			ExpiresAt:  existing.ExpiresAt,
			IsExisting: true,
		}, nil
	}
	if !errors.Is(err, ErrNoActiveOTP) {
		return nil, err
	}

	result, err := s.Generate(ctx, accountID, deliveryTarget, ip, userAgent)
	if errors.Is(err, ErrActiveRecordExists) {
		// Lost a concurrent first-time race: the winner's record is the
		// active one, reuse it.
		existing, err := s.store.GetActive(ctx, accountID, s.now())
		if err != nil {
			return nil, err
		}
		return &IssueResult{
			OTPID:      existing.ID,
			ExpiresAt:  existing.ExpiresAt,
			IsExisting: true,
		}, nil
	}
	return result, err
}

// Dispatch delivers the plaintext code to the target. The caller bounds the
// call with its context; a timeout is a delivery failure, not a system error.
// On success the transient plaintext is cleared from storage; on failure the
// record stays active so the user can still receive the code via another
// channel.
func (s *Service) Dispatch(ctx context.Context, otpID uuid.UUID, plaintextCode string, target dispatch.Target) error {
	if s.dispatcher == nil {
		return ErrDispatcherNotSet
	}

	message := fmt.Sprintf("Your verification code is %s", plaintextCode)
	if err := s.dispatcher.Send(ctx, target, message, s.policy.TOTPIssuer); err != nil {
		if markErr := s.store.MarkDelivery(ctx, otpID, DeliveryFailed, err.Error()); markErr != nil {
			s.logger.ErrorContext(ctx, "failed to record delivery failure", "otp_id", otpID, "error", markErr)
		}
		s.logEventByOTP(ctx, otpID, securityevent.TypeOTPSendFailed, target)
		return errors.Join(ErrDeliveryFailed, err)
	}

	if err := s.store.MarkDelivery(ctx, otpID, DeliverySent, ""); err != nil {
		// Delivery happened; surface the bookkeeping failure to the caller
		// because an uncleared plaintext violates the retention invariant.
		return err
	}

	s.logEventByOTP(ctx, otpID, securityevent.TypeOTPSent, target)
	return nil
}

// Validate checks a submitted code against the account's active record.
//
// The attempt counter is incremented atomically before the hash comparison
// is trusted, so a flood of parallel submissions cannot each get a free
// comparison: attempts are metered regardless of outcome.
func (s *Service) Validate(ctx context.Context, accountID uuid.UUID, submittedCode, ip string) (*ValidationResult, error) {
	if accountID == uuid.Nil {
		return nil, ErrInvalidAccountID
	}

	now := s.now()
	record, err := s.store.GetActive(ctx, accountID, now)
	if errors.Is(err, ErrNoActiveOTP) {
		s.logEvent(ctx, accountID, securityevent.TypeOTPFailed,
			securityevent.WithIP(ip),
			securityevent.WithContext("reason", "no_active_otp"),
		)
		return &ValidationResult{Message: MsgNoActiveCode}, nil
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToValidate, err)
	}

	if record.AttemptCount >= record.MaxAttempts {
		return s.exhaust(ctx, record, ip)
	}

	attempts, err := s.store.IncrementAttempts(ctx, record.ID)
	if err != nil {
		return nil, errors.Join(ErrFailedToValidate, err)
	}
	if attempts > record.MaxAttempts {
		// Concurrent submissions raced past the pre-check; the increment is
		// authoritative.
		return s.exhaust(ctx, record, ip)
	}

	if !codec.Compare(submittedCode, record.CodeHash) {
		remaining := record.MaxAttempts - attempts
		s.logEvent(ctx, accountID, securityevent.TypeOTPFailed,
			securityevent.WithIP(ip),
			securityevent.WithContext("otp_id", record.ID.String()),
			securityevent.WithContext("attempts_remaining", remaining),
		)
		return &ValidationResult{Message: MsgInvalidCode, AttemptsRemaining: remaining}, nil
	}

	sess, err := s.sessions.Create(ctx, accountID, ip, record.UserAgent)
	if err != nil {
		return nil, errors.Join(ErrFailedToValidate, err)
	}

	if err := s.store.MarkValidated(ctx, record.ID, s.now(), sess.Token, sess.ExpiresAt); err != nil {
		return nil, errors.Join(ErrFailedToValidate, err)
	}

	s.logEvent(ctx, accountID, securityevent.TypeOTPValidated,
		securityevent.WithIP(ip),
		securityevent.WithContext("otp_id", record.ID.String()),
	)

	return &ValidationResult{
		Success:          true,
		Message:          MsgCodeValidated,
		SessionToken:     sess.Token,
		SessionExpiresAt: sess.ExpiresAt,
	}, nil
}

// GetActive returns the account's active record, or ErrNoActiveOTP.
func (s *Service) GetActive(ctx context.Context, accountID uuid.UUID) (*Record, error) {
	if accountID == uuid.Nil {
		return nil, ErrInvalidAccountID
	}
	return s.store.GetActive(ctx, accountID, s.now())
}

// Invalidate terminates a record with the given reason. Idempotent.
func (s *Service) Invalidate(ctx context.Context, otpID uuid.UUID, reason string) error {
	if err := s.store.Invalidate(ctx, otpID, reason, s.now()); err != nil {
		return err
	}

	if record, err := s.store.GetByID(ctx, otpID); err == nil {
		s.logEvent(ctx, record.AccountID, securityevent.TypeOTPInvalidated,
			securityevent.WithContext("otp_id", otpID.String()),
			securityevent.WithContext("reason", reason),
		)
	}
	return nil
}

// CleanupExpired bulk-deletes terminal records older than the retention
// window. Maintenance only.
func (s *Service) CleanupExpired(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -olderThanDays)
	return s.store.DeleteOlderThan(ctx, cutoff)
}

// exhaust invalidates a record that has used up its attempts and reports the
// terminal outcome. The final submitted code is never compared.
func (s *Service) exhaust(ctx context.Context, record *Record, ip string) (*ValidationResult, error) {
	if err := s.store.Invalidate(ctx, record.ID, ReasonMaxAttemptsExceeded, s.now()); err != nil {
		return nil, errors.Join(ErrFailedToValidate, err)
	}

	s.logEvent(ctx, record.AccountID, securityevent.TypeOTPExhausted,
		securityevent.WithIP(ip),
		securityevent.WithContext("otp_id", record.ID.String()),
	)

	return &ValidationResult{Message: MsgAttemptsExhausted}, nil
}

func (s *Service) logEventByOTP(ctx context.Context, otpID uuid.UUID, eventType securityevent.Type, target dispatch.Target) {
	record, err := s.store.GetByID(ctx, otpID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load record for security event", "otp_id", otpID, "error", err)
		return
	}
	s.logEvent(ctx, record.AccountID, eventType,
		securityevent.WithContext("otp_id", otpID.String()),
		securityevent.WithContext("channel", string(target.Channel)),
	)
}

func (s *Service) logEvent(ctx context.Context, accountID uuid.UUID, eventType securityevent.Type, opts ...securityevent.Option) {
	if s.events == nil {
		return
	}
	if err := s.events.Log(ctx, accountID, eventType, opts...); err != nil {
		s.logger.ErrorContext(ctx, "failed to write security event",
			"event_type", string(eventType), "error", err)
	}
}
