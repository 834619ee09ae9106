// Package securityevent provides the append-only audit trail for the step-up
// core. Every generate/send/validate/fail/lock/unlock transition is recorded
// as an Event through a Logger backed by pluggable Storage.
//
// Writing an event must never decide an authentication outcome: callers treat
// Log errors as reportable, not fatal. For hot paths the logger can be wrapped
// with an async buffered writer (WithAsyncBuffer) that moves storage I/O off
// the request path; when the buffer is full the write degrades to synchronous
// rather than dropping the event.
package securityevent
