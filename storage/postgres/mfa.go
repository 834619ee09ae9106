package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/stepauth/mfa"
)

// MFAStore implements mfa.Store on top of the mfa_enrollments table.
type MFAStore struct {
	pool *pgxpool.Pool
}

// NewMFAStore creates an MFA enrollment store backed by the given pool.
func NewMFAStore(pool *pgxpool.Pool) *MFAStore {
	return &MFAStore{pool: pool}
}

func (s *MFAStore) Upsert(ctx context.Context, enrollment *mfa.Enrollment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO mfa_enrollments (
			account_id, secret, backup_code_hashes, enabled,
			enabled_at, disabled_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account_id) DO UPDATE SET
			secret = EXCLUDED.secret,
			backup_code_hashes = EXCLUDED.backup_code_hashes,
			enabled = EXCLUDED.enabled,
			enabled_at = EXCLUDED.enabled_at,
			disabled_at = EXCLUDED.disabled_at,
			updated_at = EXCLUDED.updated_at`,
		enrollment.AccountID, enrollment.Secret, enrollment.BackupCodeHashes, enrollment.Enabled,
		enrollment.EnabledAt, enrollment.DisabledAt, enrollment.CreatedAt, enrollment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert mfa enrollment: %w", err)
	}
	return nil
}

func (s *MFAStore) Get(ctx context.Context, accountID uuid.UUID) (*mfa.Enrollment, error) {
	var e mfa.Enrollment
	err := s.pool.QueryRow(ctx,
		`SELECT account_id, secret, backup_code_hashes, enabled,
			enabled_at, disabled_at, created_at, updated_at
		 FROM mfa_enrollments WHERE account_id = $1`, accountID).Scan(
		&e.AccountID, &e.Secret, &e.BackupCodeHashes, &e.Enabled,
		&e.EnabledAt, &e.DisabledAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mfa.ErrNotEnrolled
		}
		return nil, fmt.Errorf("query mfa enrollment: %w", err)
	}
	return &e, nil
}

func (s *MFAStore) SetEnabled(ctx context.Context, accountID uuid.UUID, enabled bool, at time.Time) error {
	var query string
	if enabled {
		query = `UPDATE mfa_enrollments
			SET enabled = TRUE, enabled_at = $2, updated_at = $2
			WHERE account_id = $1`
	} else {
		query = `UPDATE mfa_enrollments
			SET enabled = FALSE, disabled_at = $2, updated_at = $2
			WHERE account_id = $1`
	}
	tag, err := s.pool.Exec(ctx, query, accountID, at)
	if err != nil {
		return fmt.Errorf("set mfa enabled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return mfa.ErrNotEnrolled
	}
	return nil
}

func (s *MFAStore) RemoveBackupCode(ctx context.Context, accountID uuid.UUID, hash string) (bool, error) {
	// array_remove in a single UPDATE makes the consume atomic: if two
	// requests race on the same code, only one sees the hash present.
	tag, err := s.pool.Exec(ctx,
		`UPDATE mfa_enrollments
		 SET backup_code_hashes = array_remove(backup_code_hashes, $2),
		     updated_at = now()
		 WHERE account_id = $1 AND $2 = ANY(backup_code_hashes)`,
		accountID, hash)
	if err != nil {
		return false, fmt.Errorf("remove backup code: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM mfa_enrollments WHERE account_id = $1)`,
		accountID).Scan(&exists); err != nil {
		return false, fmt.Errorf("remove backup code: %w", err)
	}
	if !exists {
		return false, mfa.ErrNotEnrolled
	}
	return false, nil
}
