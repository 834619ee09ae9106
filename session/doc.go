// Package session issues and validates the short-lived step-up sessions
// created after a verified second factor. Tokens are opaque 256-bit random
// values; every token is backed by a durable row (the source of truth) and
// mirrored into the cache with a TTL equal to its remaining lifetime.
//
// Validation checks the cache first and falls through to the durable store on
// a miss or on any cache error, so cache unavailability can never invalidate
// a live session. Invalidation deletes the durable row and evicts the cache
// entry and is idempotent.
package session
