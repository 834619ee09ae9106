package dispatch

import (
	"context"
	"log/slog"
)

// DevSender implements Sender for local development and tests: messages are
// written to the logger instead of a carrier gateway or SMTP relay.
type DevSender struct {
	log     *slog.Logger
	channel Channel
}

// NewDevSender creates a logging sender labelled with the given channel.
func NewDevSender(log *slog.Logger, channel Channel) *DevSender {
	return &DevSender{log: log, channel: channel}
}

func (s *DevSender) Send(ctx context.Context, target, message, senderLabel string) error {
	if target == "" {
		return ErrEmptyTarget
	}
	if message == "" {
		return ErrEmptyMessage
	}

	s.log.InfoContext(ctx, "dev delivery",
		slog.String("channel", string(s.channel)),
		slog.String("target", target),
		slog.String("sender", senderLabel),
		slog.String("message", message),
	)
	return nil
}
