package totp

import "errors"

var (
	ErrFailedToGenerateSecret = errors.New("failed to generate TOTP secret")
	ErrInvalidSecret          = errors.New("invalid TOTP secret")
	ErrInvalidCodeFormat      = errors.New("invalid TOTP code format")
	ErrMissingAccountName     = errors.New("missing account name")
	ErrMissingIssuer          = errors.New("missing issuer")
)
