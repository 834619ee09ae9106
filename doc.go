// Package stepauth provides step-up authentication building blocks for Go
// services: one-time passcodes delivered over SMS or email, TOTP-based MFA
// with single-use backup codes, brute-force lockout, and opaque step-up
// sessions backed by Postgres with an optional Redis fast path.
//
// The stepup package is the facade most applications should use; the otp,
// mfa, lockout and session packages compose it and can be used directly when
// finer control is needed. Storage implementations live under storage/, an
// optional chi-based HTTP surface under transport/http.
//
// Basic usage:
//
//	policy := config.Default()
//	sessions := session.NewManager(postgres.NewSessionStore(pool), policy.SessionLifetime)
//	otpSvc := otp.NewService(postgres.NewOTPStore(pool), sessions, policy,
//		otp.WithDispatcher(dispatcher))
//	mfaSvc := mfa.NewService(postgres.NewMFAStore(pool), policy)
//	guard := lockout.NewGuard(postgres.NewLockoutStore(pool), policy)
//
//	svc := stepup.NewService(otpSvc, mfaSvc, guard, sessions, policy)
package stepauth
