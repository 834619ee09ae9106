// Package stepup is the single entry point callers use for step-up
// authentication. It composes the OTP lifecycle, MFA verifier, lockout guard
// and session manager into one facade so calling code never has to sequence
// the security checks itself.
//
// All operations that act on behalf of a user check the lockout state first;
// a locked account gets a uniform refusal regardless of what it attempted.
//
// Usage:
//
//	svc := stepup.NewService(otpSvc, mfaSvc, guard, sessions, policy)
//	result, err := svc.InitiateStepUp(ctx, stepup.InitiateRequest{
//		AccountID: accountID,
//		Phone:     "+15551234567",
//		Email:     "user@example.com",
//		IP:        ip,
//	})
package stepup
