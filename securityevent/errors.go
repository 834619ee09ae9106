package securityevent

import "errors"

var (
	ErrEventValidation     = errors.New("security event validation failed")
	ErrStorageNotAvailable = errors.New("security event storage not available")
)
