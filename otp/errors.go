package otp

import "errors"

var (
	ErrEmptyDeliveryTarget = errors.New("delivery target cannot be empty")
	ErrInvalidAccountID    = errors.New("invalid account id")
	ErrNoActiveOTP         = errors.New("no active one-time passcode")
	ErrActiveRecordExists  = errors.New("an active one-time passcode already exists")
	ErrRecordNotFound      = errors.New("one-time passcode record not found")
	ErrAttemptsExhausted   = errors.New("too many failed attempts")
	ErrInvalidCode         = errors.New("invalid code")
	ErrDeliveryFailed      = errors.New("failed to deliver one-time passcode")
	ErrFailedToGenerate    = errors.New("failed to generate one-time passcode")
	ErrFailedToValidate    = errors.New("failed to validate one-time passcode")
	ErrDispatcherNotSet    = errors.New("no dispatcher configured")
)
