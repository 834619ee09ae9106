package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/stepauth/securityevent"
)

// SecurityEventStore implements securityevent.Storage on the append-only
// security_events table.
type SecurityEventStore struct {
	pool *pgxpool.Pool
}

// NewSecurityEventStore creates an event store backed by the given pool.
func NewSecurityEventStore(pool *pgxpool.Pool) *SecurityEventStore {
	return &SecurityEventStore{pool: pool}
}

func (s *SecurityEventStore) Store(ctx context.Context, event securityevent.Event) error {
	var contextJSON []byte
	if len(event.Context) > 0 {
		var err error
		contextJSON, err = json.Marshal(event.Context)
		if err != nil {
			return fmt.Errorf("marshal event context: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO security_events (
			id, account_id, event_type, ip, user_agent, context, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.AccountID, string(event.Type), event.IP, event.UserAgent,
		contextJSON, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}
