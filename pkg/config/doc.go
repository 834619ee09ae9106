// Package config holds the immutable security policy for the step-up core:
// OTP length and validity, attempt limits, lockout thresholds and durations,
// session lifetime and TOTP parameters.
//
// Policy is loaded once at process start, either from environment variables
// via Load or from Default, and then passed by value to each component's
// constructor. Components never re-read configuration at call time, so the
// thresholds that back security invariants cannot drift mid-process.
package config
