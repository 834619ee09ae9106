package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyKey      = errors.New("cache key cannot be empty")
	ErrOperationFail = errors.New("cache operation failed")
)

// Cache is a best-effort key/value accelerator with per-entry TTL.
//
// Get distinguishes "not present" (found=false, err=nil) from an
// infrastructure failure (err != nil); neither may be interpreted as an
// authoritative negative for security-critical checks.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
