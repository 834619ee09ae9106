package dispatch

import (
	"context"
	"regexp"
	"strings"
)

// Channel is a closed set of delivery channel variants.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Target is one concrete delivery destination.
type Target struct {
	Channel Channel
	Address string
}

// Sender delivers a short text message to a single target. Implementations
// return errors wrapping ErrDeliveryFailed for ordinary transport failures
// and must not panic on them.
type Sender interface {
	Send(ctx context.Context, target, message, senderLabel string) error
}

var (
	// phoneRegex accepts E.164-ish numbers: optional +, 8-15 digits.
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// SelectTargets chooses delivery targets from the account's contact fields.
// Pure function: one Target per non-empty, well-formed channel, SMS first.
func SelectTargets(phone, email string) []Target {
	var targets []Target

	phone = strings.TrimSpace(phone)
	if phone != "" && phoneRegex.MatchString(strings.ReplaceAll(phone, " ", "")) {
		targets = append(targets, Target{Channel: ChannelSMS, Address: phone})
	}

	email = strings.TrimSpace(email)
	if email != "" && emailRegex.MatchString(email) {
		targets = append(targets, Target{Channel: ChannelEmail, Address: email})
	}

	return targets
}

// Dispatcher routes a Target to its channel-specific Sender.
type Dispatcher struct {
	sms   Sender
	email Sender
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSMSSender installs the SMS transport.
func WithSMSSender(s Sender) DispatcherOption {
	return func(d *Dispatcher) {
		d.sms = s
	}
}

// WithEmailSender installs the email transport.
func WithEmailSender(s Sender) DispatcherOption {
	return func(d *Dispatcher) {
		d.email = s
	}
}

// NewDispatcher creates a Dispatcher. Channels without a configured sender
// reject sends with ErrNoUsableChannel.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send delivers the message to the target over its channel.
func (d *Dispatcher) Send(ctx context.Context, target Target, message, senderLabel string) error {
	if target.Address == "" {
		return ErrEmptyTarget
	}
	if message == "" {
		return ErrEmptyMessage
	}

	switch target.Channel {
	case ChannelSMS:
		if d.sms == nil {
			return ErrNoUsableChannel
		}
		return d.sms.Send(ctx, target.Address, message, senderLabel)
	case ChannelEmail:
		if d.email == nil {
			return ErrNoUsableChannel
		}
		return d.email.Send(ctx, target.Address, message, senderLabel)
	default:
		return ErrUnknownChannel
	}
}
