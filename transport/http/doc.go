// Package http exposes the step-up facade over a chi router with JSON
// request and response bodies.
//
// The router does not authenticate requests itself: the host application is
// expected to mount its own authentication middleware and place the caller's
// account ID into the request context with WithAccountID. Handlers that act
// on an account reject requests without one.
package http
