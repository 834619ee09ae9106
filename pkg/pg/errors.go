package pg

import "errors"

var (
	ErrFailedToParseConfig      = errors.New("failed to parse postgres config")
	ErrFailedToOpenConnection   = errors.New("failed to open postgres connection")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")
	ErrMigrationPathNotProvided = errors.New("migrations path not provided")
	ErrMigrationsDirNotFound    = errors.New("migrations directory not found")
	ErrHealthcheckFailed        = errors.New("postgres healthcheck failed")
)
