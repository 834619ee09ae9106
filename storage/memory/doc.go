// Package memory provides in-process implementations of every store
// interface in the step-up core. They are used by the test suites and for
// zero-infrastructure development; production deployments use the postgres
// implementations in storage/postgres.
//
// All stores are safe for concurrent use and uphold the same invariants as
// their durable counterparts: one active OTP record per account, atomic
// attempt increments and atomic backup-code consumption.
package memory
