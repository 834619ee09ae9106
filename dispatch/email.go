package dispatch

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/mrz1836/postmark"
)

// EmailConfig holds Postmark credentials and sender identity.
type EmailConfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
}

var senderEmailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// EmailSender delivers passcodes over Postmark's transactional API.
type EmailSender struct {
	client *postmark.Client
	config EmailConfig
}

// NewEmailSender creates a Postmark-backed sender. Credentials are required
// up front so a misconfigured service fails at startup, not at first send.
func NewEmailSender(cfg EmailConfig) (*EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if !senderEmailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}

	return &EmailSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
	}, nil
}

// Send delivers the message as a plain-text transactional email. Tracking is
// deliberately off: passcode emails must not leak through analytics.
func (s *EmailSender) Send(ctx context.Context, target, message, senderLabel string) error {
	if target == "" {
		return ErrEmptyTarget
	}
	if message == "" {
		return ErrEmptyMessage
	}

	subject := senderLabel
	if subject == "" {
		subject = "Your verification code"
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.config.SenderEmail,
		To:       target,
		Subject:  subject,
		TextBody: message,
		Tag:      "step-up-otp",
	})
	if err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrDeliveryFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
