package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkAPI is the subset of the Postmark client used by PostmarkSender.
type PostmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSender sends HTML email through Postmark's transactional API.
type PostmarkSender struct {
	client PostmarkAPI
	from   string
	reply  string
}

// NewPostmarkSender creates a Postmark-backed email sender.
// Both tokens are required; there is no silent no-op mode.
func NewPostmarkSender(cfg Config) (*PostmarkSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if err := validateIdentity(cfg); err != nil {
		return nil, err
	}
	return NewPostmarkSenderWithClient(
		postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		cfg.SenderEmail,
		cfg.SupportEmail,
	), nil
}

// NewPostmarkSenderWithClient wraps an existing client.
func NewPostmarkSenderWithClient(client PostmarkAPI, from, replyTo string) *PostmarkSender {
	return &PostmarkSender{client: client, from: from, reply: replyTo}
}

// Send renders the message into the reminder layout and hands it to Postmark.
// Open tracking and HTML link tracking are enabled.
func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validateEmail(); err != nil {
		return err
	}

	html, err := renderHTML(ctx, msg)
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       s.from,
		ReplyTo:    s.reply,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   html,
		TextBody:   msg.Body,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

func validateIdentity(cfg Config) error {
	if cfg.SenderEmail == "" {
		return fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if cfg.SupportEmail == "" {
		return fmt.Errorf("%w: SupportEmail is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SupportEmail) {
		return fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}
	return nil
}
