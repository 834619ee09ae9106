// Package cache defines the fast-path lookup contract used by the lockout
// guard and session manager, with a Redis-backed implementation for
// production and an in-memory implementation for tests and local development.
//
// The cache is an accelerator, never an authority. A missing key means
// "unknown", not "false": callers that guard security decisions must fall
// through to the durable store on a miss or on any cache error. Entries carry
// their own TTL so a cache outage can only degrade performance, never
// correctness.
package cache
