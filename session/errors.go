package session

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidSession     = errors.New("invalid session")
	ErrInvalidAccountID   = errors.New("invalid account id")
	ErrFailedToCreate     = errors.New("failed to create session")
	ErrFailedToValidate   = errors.New("failed to validate session")
	ErrFailedToInvalidate = errors.New("failed to invalidate session")
)
