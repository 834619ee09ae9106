package mfa

import "errors"

var (
	ErrInvalidAccountID   = errors.New("invalid account id")
	ErrNotEnrolled        = errors.New("account is not enrolled in MFA")
	ErrAlreadyEnabled     = errors.New("MFA is already enabled for this account")
	ErrVerificationFailed = errors.New("MFA verification failed")
	ErrFailedToSetup      = errors.New("failed to set up MFA enrollment")
	ErrMissingAccountName = errors.New("account name is required for provisioning")
)
