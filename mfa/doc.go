// Package mfa manages TOTP enrollment and verification for step-up
// authentication: per-account shared secrets, a scannable provisioning
// artifact, single-use backup codes and the policy predicate that decides
// which roles require a second factor at all.
//
// Backup codes are stored hashed and consumed atomically on first use; a
// consumed code can never be accepted again, even under concurrent
// verification attempts. Setup may be re-run to replace the secret up until
// the enrollment is enabled.
package mfa
