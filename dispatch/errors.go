package dispatch

import "errors"

var (
	ErrEmptyTarget     = errors.New("delivery target cannot be empty")
	ErrEmptyMessage    = errors.New("delivery message cannot be empty")
	ErrDeliveryFailed  = errors.New("delivery failed")
	ErrInvalidConfig   = errors.New("invalid dispatch config")
	ErrNoUsableChannel = errors.New("no usable delivery channel")
	ErrUnknownChannel  = errors.New("unknown delivery channel")
)
