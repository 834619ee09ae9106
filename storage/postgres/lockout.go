package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/stepauth/lockout"
)

// LockoutStore implements lockout.Store on the login_attempts and
// account_security tables.
type LockoutStore struct {
	pool *pgxpool.Pool
}

// NewLockoutStore creates a lockout store backed by the given pool.
func NewLockoutStore(pool *pgxpool.Pool) *LockoutStore {
	return &LockoutStore{pool: pool}
}

func (s *LockoutStore) RecordAttempt(ctx context.Context, attempt *lockout.Attempt) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO login_attempts (
			id, account_id, ip, user_agent, success, failure_reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		attempt.ID, attempt.AccountID, attempt.IP, attempt.UserAgent,
		attempt.Success, attempt.FailureReason, attempt.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert login attempt: %w", err)
	}
	return nil
}

func (s *LockoutStore) CountFailuresSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM login_attempts
		 WHERE account_id = $1 AND NOT success AND created_at >= $2`,
		accountID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count failed attempts: %w", err)
	}
	return count, nil
}

func (s *LockoutStore) CountDistinctIPsSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(DISTINCT ip) FROM login_attempts
		 WHERE account_id = $1 AND ip <> '' AND created_at >= $2`,
		accountID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count distinct attempt ips: %w", err)
	}
	return count, nil
}

func (s *LockoutStore) GetState(ctx context.Context, accountID uuid.UUID) (*lockout.State, error) {
	var state lockout.State
	err := s.pool.QueryRow(ctx,
		`SELECT account_id, locked, locked_at, locked_until
		 FROM account_security WHERE account_id = $1`, accountID).Scan(
		&state.AccountID, &state.Locked, &state.LockedAt, &state.LockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &lockout.State{AccountID: accountID}, nil
		}
		return nil, fmt.Errorf("query lockout state: %w", err)
	}
	return &state, nil
}

func (s *LockoutStore) SetLock(ctx context.Context, accountID uuid.UUID, lockedAt, lockedUntil time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO account_security (account_id, locked, locked_at, locked_until)
		 VALUES ($1, TRUE, $2, $3)
		 ON CONFLICT (account_id) DO UPDATE SET
			locked = TRUE, locked_at = EXCLUDED.locked_at, locked_until = EXCLUDED.locked_until`,
		accountID, lockedAt, lockedUntil)
	if err != nil {
		return fmt.Errorf("set account lock: %w", err)
	}
	return nil
}

func (s *LockoutStore) ClearLock(ctx context.Context, accountID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE account_security
		 SET locked = FALSE, locked_at = NULL, locked_until = NULL
		 WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("clear account lock: %w", err)
	}
	return nil
}
