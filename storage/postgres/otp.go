package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/stepauth/otp"
)

// OTPStore implements otp.Store on top of the otp_codes table.
type OTPStore struct {
	pool *pgxpool.Pool
}

// NewOTPStore creates an OTP store backed by the given pool.
func NewOTPStore(pool *pgxpool.Pool) *OTPStore {
	return &OTPStore{pool: pool}
}

const otpColumns = `id, account_id, code_hash, generated_at, expires_at,
	validated, validated_at, attempt_count, max_attempts,
	session_token, session_expires_at,
	delivery_target, delivery_status, delivery_error,
	invalidated_at, invalidation_reason, ip, user_agent`

func scanOTP(row pgx.Row) (*otp.Record, error) {
	var r otp.Record
	var status string
	err := row.Scan(
		&r.ID, &r.AccountID, &r.CodeHash, &r.GeneratedAt, &r.ExpiresAt,
		&r.Validated, &r.ValidatedAt, &r.AttemptCount, &r.MaxAttempts,
		&r.SessionToken, &r.SessionExpiresAt,
		&r.DeliveryTarget, &status, &r.DeliveryError,
		&r.InvalidatedAt, &r.InvalidationReason, &r.IP, &r.UserAgent,
	)
	if err != nil {
		return nil, err
	}
	r.DeliveryStatus = otp.DeliveryStatus(status)
	return &r, nil
}

func (s *OTPStore) Create(ctx context.Context, record *otp.Record) error {
	// Expired rows keep active=TRUE until touched; retire them first so the
	// partial unique index only blocks genuinely live codes.
	_, err := s.pool.Exec(ctx,
		`UPDATE otp_codes SET active = FALSE
		 WHERE account_id = $1 AND active AND expires_at <= $2`,
		record.AccountID, record.GeneratedAt)
	if err != nil {
		return fmt.Errorf("retire expired otp rows: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO otp_codes (
			id, account_id, code_hash, generated_at, expires_at,
			validated, attempt_count, max_attempts,
			delivery_target, delivery_status, delivery_error,
			ip, user_agent, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, TRUE)`,
		record.ID, record.AccountID, record.CodeHash, record.GeneratedAt, record.ExpiresAt,
		record.Validated, record.AttemptCount, record.MaxAttempts,
		record.DeliveryTarget, string(record.DeliveryStatus), record.DeliveryError,
		record.IP, record.UserAgent)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return otp.ErrActiveRecordExists
		}
		return fmt.Errorf("insert otp record: %w", err)
	}
	return nil
}

func (s *OTPStore) GetActive(ctx context.Context, accountID uuid.UUID, now time.Time) (*otp.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+otpColumns+` FROM otp_codes
		 WHERE account_id = $1 AND active AND expires_at > $2`,
		accountID, now)
	record, err := scanOTP(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, otp.ErrNoActiveOTP
		}
		return nil, fmt.Errorf("query active otp: %w", err)
	}
	return record, nil
}

func (s *OTPStore) GetByID(ctx context.Context, id uuid.UUID) (*otp.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+otpColumns+` FROM otp_codes WHERE id = $1`, id)
	record, err := scanOTP(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, otp.ErrRecordNotFound
		}
		return nil, fmt.Errorf("query otp by id: %w", err)
	}
	return record, nil
}

func (s *OTPStore) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`UPDATE otp_codes SET attempt_count = attempt_count + 1
		 WHERE id = $1 RETURNING attempt_count`, id).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, otp.ErrRecordNotFound
		}
		return 0, fmt.Errorf("increment otp attempts: %w", err)
	}
	return count, nil
}

func (s *OTPStore) MarkValidated(ctx context.Context, id uuid.UUID, at time.Time, sessionToken string, sessionExpiresAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE otp_codes SET
			validated = TRUE, validated_at = $2,
			session_token = $3, session_expires_at = $4,
			active = FALSE
		 WHERE id = $1`,
		id, at, sessionToken, sessionExpiresAt)
	if err != nil {
		return fmt.Errorf("mark otp validated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return otp.ErrRecordNotFound
	}
	return nil
}

func (s *OTPStore) MarkDelivery(ctx context.Context, id uuid.UUID, status otp.DeliveryStatus, deliveryError string) error {
	var errPtr *string
	if deliveryError != "" {
		errPtr = &deliveryError
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE otp_codes SET delivery_status = $2, delivery_error = $3
		 WHERE id = $1`,
		id, string(status), errPtr)
	if err != nil {
		return fmt.Errorf("mark otp delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return otp.ErrRecordNotFound
	}
	return nil
}

func (s *OTPStore) Invalidate(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE otp_codes SET
			invalidated_at = $2, invalidation_reason = $3, active = FALSE
		 WHERE id = $1 AND invalidated_at IS NULL`,
		id, at, reason)
	if err != nil {
		return fmt.Errorf("invalidate otp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either missing or already terminal; distinguish for the caller.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM otp_codes WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("invalidate otp: %w", err)
		}
		if !exists {
			return otp.ErrRecordNotFound
		}
	}
	return nil
}

func (s *OTPStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM otp_codes
		 WHERE generated_at < $1
		   AND (NOT active OR expires_at <= now())`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old otp records: %w", err)
	}
	return tag.RowsAffected(), nil
}
