// Package pg bootstraps the PostgreSQL pool that serves as the durable
// source of truth for OTP records, MFA enrollments, login attempts, account
// security state, sessions and security events. Connect retries with
// incremental backoff; Migrate applies the goose migrations shipped under
// storage/postgres/migrations.
package pg
