// Package redis bootstraps the Redis connection backing the cache fast path
// for lockout flags and session lookups. Connect retries with a bounded
// backoff so the core can start while infrastructure is still coming up; a
// healthcheck helper is provided for readiness probes.
package redis
