package securityevent

import "context"

// Storage persists security events. Implementations must treat events as
// append-only; there is no update or delete in the contract.
type Storage interface {
	Store(ctx context.Context, event Event) error
}
