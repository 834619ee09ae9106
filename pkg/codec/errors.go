package codec

import "errors"

var (
	ErrInvalidCodeLength      = errors.New("code length must be greater than 0")
	ErrInvalidBackupCodeCount = errors.New("backup code count must be greater than 0")
	ErrFailedToGenerateCode   = errors.New("failed to generate random code")
	ErrFailedToGenerateToken  = errors.New("failed to generate session token")
	ErrFailedToHashCode       = errors.New("failed to hash code")
)
