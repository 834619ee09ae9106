// Package codec provides the shared secret primitives for the step-up
// authentication core: cryptographically random one-time-passcode digits,
// single-use backup codes, slow salted hashing for anything compared against
// user input, and high-entropy opaque tokens for sessions.
//
// Plaintext values produced here are meant to be handed out exactly once
// (for delivery or for the user to record) and only their hashes persisted.
// Comparison helpers are constant-time so storage contents never leak through
// timing differences.
package codec
