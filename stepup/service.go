package stepup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stepauth/dispatch"
	"github.com/dmitrymomot/stepauth/lockout"
	"github.com/dmitrymomot/stepauth/mfa"
	"github.com/dmitrymomot/stepauth/otp"
	"github.com/dmitrymomot/stepauth/pkg/config"
	"github.com/dmitrymomot/stepauth/session"
)

// User-safe messages returned by the facade.
const (
	MsgAccountLocked   = "account temporarily locked, try again later"
	MsgCodeSent        = "verification code sent"
	MsgCodeAlreadySent = "a verification code was already sent, check your messages"
)

// InitiateRequest carries the inputs for starting a step-up challenge.
type InitiateRequest struct {
	AccountID uuid.UUID
	Phone     string
	Email     string
	IP        string
	UserAgent string
}

// InitiateResult is the outcome of InitiateStepUp. OTPID and ExpiresAt are
// populated whenever a code exists; IsExisting marks a reused challenge for
// which no new message was sent.
type InitiateResult struct {
	Success    bool
	Message    string
	OTPID      uuid.UUID
	ExpiresAt  time.Time
	IsExisting bool
}

// SubmitResult is the outcome of SubmitStepUpCode.
type SubmitResult struct {
	Success           bool
	Message           string
	SessionToken      string
	SessionExpiresAt  time.Time
	AttemptsRemaining int
}

// Service is the step-up facade.
type Service struct {
	otp      *otp.Service
	mfa      *mfa.Service
	guard    *lockout.Guard
	sessions *session.Manager
	policy   config.Policy
	logger   *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		s.logger = log
	}
}

// NewService composes the facade from the underlying services.
func NewService(otpSvc *otp.Service, mfaSvc *mfa.Service, guard *lockout.Guard, sessions *session.Manager, policy config.Policy, opts ...Option) *Service {
	if otpSvc == nil {
		panic("stepup: otp service cannot be nil")
	}
	if mfaSvc == nil {
		panic("stepup: mfa service cannot be nil")
	}
	if guard == nil {
		panic("stepup: lockout guard cannot be nil")
	}
	if sessions == nil {
		panic("stepup: session manager cannot be nil")
	}

	s := &Service{
		otp:      otpSvc,
		mfa:      mfaSvc,
		guard:    guard,
		sessions: sessions,
		policy:   policy,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// InitiateStepUp starts a step-up challenge: it refuses locked accounts,
// issues or reuses the account's active code, and dispatches fresh codes over
// every usable channel. A fresh code counts as sent when at least one channel
// succeeds; the record stays active either way so a retry can still deliver.
func (s *Service) InitiateStepUp(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if req.AccountID == uuid.Nil {
		return nil, ErrInvalidAccountID
	}

	locked, err := s.guard.IsLocked(ctx, req.AccountID)
	if err != nil {
		return nil, errors.Join(ErrFailedToInitiate, err)
	}
	if locked {
		return &InitiateResult{Message: MsgAccountLocked}, ErrAccountLocked
	}

	targets := dispatch.SelectTargets(req.Phone, req.Email)
	if len(targets) == 0 {
		return nil, ErrNoUsableChannel
	}

	issue, err := s.otp.GenerateOrReuse(ctx, req.AccountID, targets[0].Address, req.IP, req.UserAgent)
	if err != nil {
		return nil, errors.Join(ErrFailedToInitiate, err)
	}

	result := &InitiateResult{
		OTPID:      issue.OTPID,
		ExpiresAt:  issue.ExpiresAt,
		IsExisting: issue.IsExisting,
	}

	if issue.IsExisting {
		// The plaintext of a reused code is unrecoverable, so nothing can be
		// re-sent; the user is pointed at the message they already received.
		result.Success = true
		result.Message = MsgCodeAlreadySent
		return result, nil
	}

	delivered := 0
	for _, target := range targets {
		sendCtx, cancel := context.WithTimeout(ctx, s.policy.DispatchTimeout)
		err := s.otp.Dispatch(sendCtx, issue.OTPID, issue.PlaintextCode, target)
		cancel()
		if err != nil {
			s.logger.WarnContext(ctx, "step-up delivery failed",
				"account_id", req.AccountID, "channel", string(target.Channel), "error", err)
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return result, ErrAllChannelsFailed
	}

	result.Success = true
	result.Message = MsgCodeSent
	return result, nil
}

// SubmitStepUpCode validates a submitted code. The outcome is recorded as a
// login attempt so brute force across step-up submissions feeds the lockout
// counters; a successful submission clears any standing failure streak.
func (s *Service) SubmitStepUpCode(ctx context.Context, accountID uuid.UUID, code, ip, userAgent string) (*SubmitResult, error) {
	if accountID == uuid.Nil {
		return nil, ErrInvalidAccountID
	}

	locked, err := s.guard.IsLocked(ctx, accountID)
	if err != nil {
		return nil, errors.Join(ErrFailedToSubmit, err)
	}
	if locked {
		return &SubmitResult{Message: MsgAccountLocked}, ErrAccountLocked
	}

	validation, err := s.otp.Validate(ctx, accountID, code, ip)
	if err != nil {
		return nil, errors.Join(ErrFailedToSubmit, err)
	}

	failureReason := ""
	if !validation.Success {
		failureReason = "otp_validation_failed"
	}
	if err := s.guard.RecordAttempt(ctx, accountID, ip, userAgent, validation.Success, failureReason); err != nil {
		// The validation outcome stands; attempt bookkeeping failures are
		// logged, not surfaced.
		s.logger.ErrorContext(ctx, "failed to record login attempt",
			"account_id", accountID, "error", err)
	}

	return &SubmitResult{
		Success:           validation.Success,
		Message:           validation.Message,
		SessionToken:      validation.SessionToken,
		SessionExpiresAt:  validation.SessionExpiresAt,
		AttemptsRemaining: validation.AttemptsRemaining,
	}, nil
}

// VerifySession reports whether the token names a live step-up session and for
// which account.
func (s *Service) VerifySession(ctx context.Context, token string) (uuid.UUID, bool, error) {
	return s.sessions.Validate(ctx, token)
}

// InvalidateSession revokes a session token. Idempotent.
func (s *Service) InvalidateSession(ctx context.Context, token string) error {
	return s.sessions.Invalidate(ctx, token)
}

// CheckLockout returns the account's current lockout state with lazy unlock
// applied.
func (s *Service) CheckLockout(ctx context.Context, accountID uuid.UUID) (*lockout.State, error) {
	return s.guard.Status(ctx, accountID)
}

// RecordLoginOutcome feeds an external login result into the lockout guard
// and, on failure, checks for distributed attacks against the account.
func (s *Service) RecordLoginOutcome(ctx context.Context, accountID uuid.UUID, ip, userAgent string, success bool, failureReason string) error {
	if err := s.guard.RecordAttempt(ctx, accountID, ip, userAgent, success, failureReason); err != nil {
		return err
	}

	if !success {
		if _, err := s.guard.DetectSuspicious(ctx, accountID, ip); err != nil {
			s.logger.WarnContext(ctx, "suspicious activity check failed",
				"account_id", accountID, "error", err)
		}
	}
	return nil
}

// RequiresStepUp reports whether the account must complete step-up, applying
// the exempt-role policy.
func (s *Service) RequiresStepUp(accountLevel, roleName string) bool {
	return s.mfa.RequiresStepUp(accountLevel, roleName)
}

// SetupMFA provisions a fresh TOTP secret and backup codes for the account.
func (s *Service) SetupMFA(ctx context.Context, accountID uuid.UUID, accountName string) (*mfa.SetupResult, error) {
	return s.mfa.Setup(ctx, accountID, accountName)
}

// EnableMFA turns MFA on after verifying the supplied code.
func (s *Service) EnableMFA(ctx context.Context, accountID uuid.UUID, verificationCode string) (bool, error) {
	return s.mfa.Enable(ctx, accountID, verificationCode)
}

// DisableMFA turns MFA off for the account.
func (s *Service) DisableMFA(ctx context.Context, accountID uuid.UUID) error {
	return s.mfa.Disable(ctx, accountID)
}

// VerifyMFA checks a TOTP or backup code for the account.
func (s *Service) VerifyMFA(ctx context.Context, accountID uuid.UUID, code string) (bool, error) {
	return s.mfa.Verify(ctx, accountID, code)
}

// MFAEnabled reports whether the account has MFA enabled.
func (s *Service) MFAEnabled(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return s.mfa.IsEnabled(ctx, accountID)
}
