// Package otp implements the one-time-passcode lifecycle for step-up
// authentication: issuance, delivery, validation with atomic attempt
// metering, invalidation and retention cleanup.
//
// A record is active while it is unvalidated, uninvalidated and unexpired;
// the store enforces at most one active record per account. Validation
// increments the attempt counter atomically before the hash comparison so a
// flood of concurrent submissions cannot obtain free guesses, and the code
// itself is persisted only as a bcrypt hash — the plaintext lives on the
// record just long enough to be dispatched.
//
// State machine per record: Active -> Validated | Exhausted | Invalidated |
// Expired. All four outcomes are terminal; expiry is observed lazily at read
// time rather than by a background sweep.
package otp
