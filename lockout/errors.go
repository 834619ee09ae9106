package lockout

import "errors"

var (
	ErrInvalidAccountID = errors.New("invalid account id")
	ErrFailedToRecord   = errors.New("failed to record login attempt")
	ErrFailedToLock     = errors.New("failed to lock account")
	ErrFailedToUnlock   = errors.New("failed to clear lockout")
	ErrFailedToCheck    = errors.New("failed to check lockout state")
)
