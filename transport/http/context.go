package http

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{ name string }

var accountIDKey = contextKey{"account_id"}

// WithAccountID returns a context carrying the authenticated account ID. Host
// authentication middleware calls this before handing the request to the
// router.
func WithAccountID(ctx context.Context, accountID uuid.UUID) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// AccountIDFromContext extracts the authenticated account ID, if present.
func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(accountIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
