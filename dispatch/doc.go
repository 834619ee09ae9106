// Package dispatch delivers one-time passcodes to the user over SMS and/or
// email. The actual transport is behind the Sender contract; implementations
// are provided for Postmark email delivery, a pluggable SMS gateway adapter
// and a development sender that writes to a logger instead.
//
// Channel selection is a pure function of the account's contact fields:
// SelectTargets returns one Target per usable channel and delivery is
// attempted on each independently. Ordinary delivery failures come back as
// errors wrapping ErrDeliveryFailed and are non-fatal to the caller as long
// as one channel succeeds; only contract violations (empty target, missing
// configuration) are treated as programming errors.
package dispatch
