// Package clientip resolves the originating client address of an HTTP
// request, preferring trusted proxy headers over the raw connection address.
//
// Every candidate value is parsed before use, so header injection with
// garbage never reaches audit logs or lockout counters.
package clientip
