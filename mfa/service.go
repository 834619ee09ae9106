package mfa

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/stepauth/pkg/codec"
	"github.com/dmitrymomot/stepauth/pkg/config"
	"github.com/dmitrymomot/stepauth/pkg/qrcode"
	"github.com/dmitrymomot/stepauth/pkg/totp"
	"github.com/dmitrymomot/stepauth/securityevent"
)

// SetupResult carries the material the user must record. The plaintext
// secret and backup codes are returned exactly once and never recoverable
// from storage afterwards.
type SetupResult struct {
	Secret          string
	ProvisioningURI string
	QRCodeBase64    string
	BackupCodes     []string
}

// Service is the TOTP/MFA verifier.
type Service struct {
	store  Store
	policy config.Policy
	exempt map[string]struct{}
	logger *slog.Logger
	events securityevent.Logger
	now    func() time.Time
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

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the MFA verifier.
func NewService(store Store, policy config.Policy, opts ...Option) *Service {
	if store == nil {
		panic("mfa: store cannot be nil")
	}

	exempt := make(map[string]struct{}, len(policy.ExemptRoles))
	for _, role := range policy.ExemptRoles {
		exempt[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	s := &Service{
		store:  store,
		policy: policy,
		exempt: exempt,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RequiresStepUp is the single policy predicate deciding whether an account
// must complete step-up authentication. Elevated roles named in the exempt
// set skip it, matched against either the account level or the role name so
// the decision cannot drift between call sites.
func (s *Service) RequiresStepUp(accountLevel, roleName string) bool {
	if _, ok := s.exempt[strings.ToLower(strings.TrimSpace(roleName))]; ok {
		return false
	}
	if _, ok := s.exempt[strings.ToLower(strings.TrimSpace(accountLevel))]; ok {
		return false
	}
	return true
}

// Setup generates a fresh shared secret and backup codes for the account and
// stores them without enabling MFA. Re-running setup before Enable replaces
// the previous material; once enabled, setup is rejected.
func (s *Service) Setup(ctx context.Context, accountID uuid.UUID, accountName string) (*SetupResult, error) {
	if accountID == uuid.Nil {
		return nil, ErrInvalidAccountID
	}
	if accountName == "" {
		return nil, ErrMissingAccountName
	}

	existing, err := s.store.Get(ctx, accountID)
	if err != nil && !errors.Is(err, ErrNotEnrolled) {
		return nil, errors.Join(ErrFailedToSetup, err)
	}
	if existing != nil && existing.Enabled {
		return nil, ErrAlreadyEnabled
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		return nil, errors.Join(ErrFailedToSetup, err)
	}

	codes, err := codec.BackupCodes(s.policy.BackupCodeCount)
	if err != nil {
		return nil, errors.Join(ErrFailedToSetup, err)
	}

	hashes := make([]string, len(codes))
	for i, code := range codes {
		hash, err := codec.Hash(code)
		if err != nil {
			return nil, errors.Join(ErrFailedToSetup, err)
		}
		hashes[i] = hash
	}

	now := s.now()
	enrollment := &Enrollment{
		AccountID:        accountID,
		Secret:           secret,
		BackupCodeHashes: hashes,
		Enabled:          false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if existing != nil {
		enrollment.CreatedAt = existing.CreatedAt
	}

	if err := s.store.Upsert(ctx, enrollment); err != nil {
		return nil, errors.Join(ErrFailedToSetup, err)
	}

	uri, err := totp.URI(totp.URIParams{
		Secret:      secret,
		AccountName: accountName,
		Issuer:      s.policy.TOTPIssuer,
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToSetup, err)
	}

	qr, err := qrcode.GenerateBase64Image(uri, 0)
	if err != nil {
		return nil, errors.Join(ErrFailedToSetup, err)
	}

	return &SetupResult{
		Secret:          secret,
		ProvisioningURI: uri,
		QRCodeBase64:    qr,
		BackupCodes:     codes,
	}, nil
}

// Verify checks the submitted code against the live TOTP algorithm within
// the configured skew, or against the remaining backup codes. A matched
// backup code is removed atomically so it can never be reused.
func (s *Service) Verify(ctx context.Context, accountID uuid.UUID, submittedCode string) (bool, error) {
	if accountID == uuid.Nil {
		return false, ErrInvalidAccountID
	}

	enrollment, err := s.store.Get(ctx, accountID)
	if err != nil {
		return false, err
	}

	submittedCode = strings.TrimSpace(submittedCode)

	ok, err := totp.Validate(enrollment.Secret, submittedCode, s.policy.TOTPSkew, s.now())
	if err != nil && !errors.Is(err, totp.ErrInvalidCodeFormat) {
		return false, err
	}
	if ok {
		s.logEvent(ctx, accountID, securityevent.TypeMFAVerified,
			securityevent.WithContext("method", "totp"))
		return true, nil
	}

	if s.verifyBackupCode(ctx, accountID, enrollment, submittedCode) {
		s.logEvent(ctx, accountID, securityevent.TypeMFAVerified,
			securityevent.WithContext("method", "backup_code"))
		return true, nil
	}

	s.logEvent(ctx, accountID, securityevent.TypeMFAFailed)
	return false, nil
}

// Enable turns MFA on after a successful verification of the supplied code.
func (s *Service) Enable(ctx context.Context, accountID uuid.UUID, verificationCode string) (bool, error) {
	ok, err := s.Verify(ctx, accountID, verificationCode)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := s.store.SetEnabled(ctx, accountID, true, s.now()); err != nil {
		return false, err
	}

	s.logEvent(ctx, accountID, securityevent.TypeMFAEnabled)
	return true, nil
}

// Disable turns MFA off. Historical backup-code usage is preserved.
func (s *Service) Disable(ctx context.Context, accountID uuid.UUID) error {
	if accountID == uuid.Nil {
		return ErrInvalidAccountID
	}

	if err := s.store.SetEnabled(ctx, accountID, false, s.now()); err != nil {
		return err
	}

	s.logEvent(ctx, accountID, securityevent.TypeMFADisabled)
	return nil
}

// IsEnabled reports whether the account has MFA enabled. An account without
// an enrollment is simply not enabled.
func (s *Service) IsEnabled(ctx context.Context, accountID uuid.UUID) (bool, error) {
	if accountID == uuid.Nil {
		return false, ErrInvalidAccountID
	}

	enrollment, err := s.store.Get(ctx, accountID)
	if errors.Is(err, ErrNotEnrolled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return enrollment.Enabled, nil
}

// verifyBackupCode scans the stored hashes for a match and consumes it. The
// removal is the atomicity point: if another request consumed the same code
// first, RemoveBackupCode reports false and verification fails.
func (s *Service) verifyBackupCode(ctx context.Context, accountID uuid.UUID, enrollment *Enrollment, code string) bool {
	code = strings.ToUpper(code)
	for _, hash := range enrollment.BackupCodeHashes {
		if !codec.Compare(code, hash) {
			continue
		}
		removed, err := s.store.RemoveBackupCode(ctx, accountID, hash)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to consume backup code", "account_id", accountID, "error", err)
			return false
		}
		return removed
	}
	return false
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
