// Package postgres provides pgx-backed implementations of the storage
// interfaces used across the module. Schema migrations live under
// migrations/ and are applied with goose.
//
// The otp_codes table carries a partial unique index on (account_id) for
// active rows, which is what makes the one-active-code invariant hold under
// concurrent issuance. Stores keep that column in sync on every state
// transition.
package postgres
