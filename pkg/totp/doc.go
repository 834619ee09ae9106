// Package totp implements the RFC 4226/6238 one-time-password algorithms used
// by the MFA verifier: secret generation, HOTP/TOTP code computation,
// skew-tolerant validation and provisioning URI construction for authenticator
// apps.
//
// The algorithm is self-contained on purpose. Keeping HOTP/TOTP in-tree avoids
// dragging a third-party OTP dependency into the security core and makes the
// accepted time windows explicit: Validate accepts codes from the current time
// step plus a configurable number of adjacent steps to absorb clock drift.
//
// All validation entry points take the reference time as an argument so tests
// can pin the clock; production callers pass time.Now().
package totp
