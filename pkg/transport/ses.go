package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of the SES client used by SESSender.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender sends email through Amazon SES.
type SESSender struct {
	client SESAPI
	from   string
	reply  string
}

// NewSESSender loads the default AWS configuration for the given region
// and returns an SES-backed sender.
func NewSESSender(ctx context.Context, cfg Config) (*SESSender, error) {
	if err := validateIdentity(cfg); err != nil {
		return nil, err
	}
	if cfg.AWSRegion == "" {
		return nil, fmt.Errorf("%w: AWSRegion is required", ErrInvalidConfig)
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", ErrInvalidConfig, err)
	}
	return NewSESSenderWithClient(ses.NewFromConfig(awsCfg), cfg.SenderEmail, cfg.SupportEmail), nil
}

// NewSESSenderWithClient wraps an existing client.
func NewSESSenderWithClient(client SESAPI, from, replyTo string) *SESSender {
	return &SESSender{client: client, from: from, reply: replyTo}
}

func (s *SESSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validateEmail(); err != nil {
		return err
	}

	html, err := renderHTML(ctx, msg)
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}

	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body)},
				Html: &types.Content{Data: aws.String(html)},
			},
		},
		Source: aws.String(s.from),
	}
	if s.reply != "" {
		input.ReplyToAddresses = []string{s.reply}
	}
	if msg.Tag != "" {
		input.Tags = []types.MessageTag{{Name: aws.String("tag"), Value: aws.String(msg.Tag)}}
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}
