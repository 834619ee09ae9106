package stepup

import "errors"

var (
	ErrInvalidAccountID  = errors.New("invalid account id")
	ErrAccountLocked     = errors.New("account is temporarily locked")
	ErrNoUsableChannel   = errors.New("no usable delivery channel for account")
	ErrAllChannelsFailed = errors.New("delivery failed on every channel")
	ErrFailedToInitiate  = errors.New("failed to initiate step-up")
	ErrFailedToSubmit    = errors.New("failed to submit step-up code")
)
