package dispatch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stepauth/dispatch"
)

func TestSelectTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		phone string
		email string
		want  []dispatch.Target
	}{
		{
			name:  "both channels",
			phone: "+14155550123",
			email: "admin@example.com",
			want: []dispatch.Target{
				{Channel: dispatch.ChannelSMS, Address: "+14155550123"},
				{Channel: dispatch.ChannelEmail, Address: "admin@example.com"},
			},
		},
		{
			name:  "phone only",
			phone: "14155550123",
			want:  []dispatch.Target{{Channel: dispatch.ChannelSMS, Address: "14155550123"}},
		},
		{
			name:  "email only",
			email: "admin@example.com",
			want:  []dispatch.Target{{Channel: dispatch.ChannelEmail, Address: "admin@example.com"}},
		},
		{
			name:  "malformed contacts yield nothing",
			phone: "not-a-phone",
			email: "not-an-email",
			want:  nil,
		},
		{
			name: "empty contacts yield nothing",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dispatch.SelectTargets(tt.phone, tt.email))
		})
	}
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(ctx context.Context, target, message, senderLabel string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, target)
	return nil
}

func TestDispatcherSend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("routes to channel sender", func(t *testing.T) {
		t.Parallel()
		sms := &fakeSender{}
		email := &fakeSender{}
		d := dispatch.NewDispatcher(dispatch.WithSMSSender(sms), dispatch.WithEmailSender(email))

		require.NoError(t, d.Send(ctx, dispatch.Target{Channel: dispatch.ChannelSMS, Address: "+1415"}, "code 123456", "StepAuth"))
		require.NoError(t, d.Send(ctx, dispatch.Target{Channel: dispatch.ChannelEmail, Address: "a@b.co"}, "code 123456", "StepAuth"))

		assert.Equal(t, []string{"+1415"}, sms.sent)
		assert.Equal(t, []string{"a@b.co"}, email.sent)
	})

	t.Run("missing sender", func(t *testing.T) {
		t.Parallel()
		d := dispatch.NewDispatcher()
		err := d.Send(ctx, dispatch.Target{Channel: dispatch.ChannelSMS, Address: "+1415"}, "m", "l")
		assert.ErrorIs(t, err, dispatch.ErrNoUsableChannel)
	})

	t.Run("transport failure propagates", func(t *testing.T) {
		t.Parallel()
		boom := errors.Join(dispatch.ErrDeliveryFailed, errors.New("gateway down"))
		d := dispatch.NewDispatcher(dispatch.WithSMSSender(&fakeSender{err: boom}))
		err := d.Send(ctx, dispatch.Target{Channel: dispatch.ChannelSMS, Address: "+1415"}, "m", "l")
		assert.ErrorIs(t, err, dispatch.ErrDeliveryFailed)
	})

	t.Run("contract violations", func(t *testing.T) {
		t.Parallel()
		d := dispatch.NewDispatcher(dispatch.WithSMSSender(&fakeSender{}))
		assert.ErrorIs(t, d.Send(ctx, dispatch.Target{Channel: dispatch.ChannelSMS}, "m", "l"), dispatch.ErrEmptyTarget)
		assert.ErrorIs(t, d.Send(ctx, dispatch.Target{Channel: dispatch.ChannelSMS, Address: "+1415"}, "", "l"), dispatch.ErrEmptyMessage)
		assert.ErrorIs(t, d.Send(ctx, dispatch.Target{Channel: "pigeon", Address: "x"}, "m", "l"), dispatch.ErrUnknownChannel)
	})
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := dispatch.NewDevSender(log, dispatch.ChannelSMS)

	require.NoError(t, s.Send(context.Background(), "+14155550123", "your code is 123456", "StepAuth"))
	assert.ErrorIs(t, s.Send(context.Background(), "", "m", "l"), dispatch.ErrEmptyTarget)
}
