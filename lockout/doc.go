// Package lockout protects accounts against brute-force login attempts. It
// records every attempt in an append-only log, counts failures over a
// trailing window, locks the account when the threshold is reached and
// unlocks it lazily once the lockout period has passed.
//
// The durable store is the authority of record; the cache only accelerates
// the common "is this account locked" check with a TTL equal to the
// remaining lockout. A cache outage degrades to durable reads and can never
// report a locked account as unlocked.
package lockout
