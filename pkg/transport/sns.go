package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// smsMaxLength keeps a message within a handful of SMS segments.
const smsMaxLength = 480

// SNSAPI is the subset of the SNS client used by SNSSender.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender sends text messages to phone numbers through Amazon SNS.
type SNSSender struct {
	client   SNSAPI
	senderID string
}

// NewSNSSender loads the default AWS configuration for the given region
// and returns an SNS-backed SMS sender.
func NewSNSSender(ctx context.Context, cfg Config) (*SNSSender, error) {
	if cfg.AWSRegion == "" {
		return nil, fmt.Errorf("%w: AWSRegion is required", ErrInvalidConfig)
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", ErrInvalidConfig, err)
	}
	return NewSNSSenderWithClient(sns.NewFromConfig(awsCfg), cfg.SMSSenderID), nil
}

// NewSNSSenderWithClient wraps an existing client. senderID may be empty.
func NewSNSSenderWithClient(client SNSAPI, senderID string) *SNSSender {
	return &SNSSender{client: client, senderID: senderID}
}

func (s *SNSSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validatePhone(); err != nil {
		return err
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(msg.To),
		Message:     aws.String(smsText(msg)),
	}
	if s.senderID != "" {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(s.senderID)},
		}
	}

	if _, err := s.client.Publish(ctx, input); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func smsText(msg Message) string {
	text := strings.TrimSpace(msg.Body)
	if subject := strings.TrimSpace(msg.Subject); subject != "" {
		if text == "" {
			text = subject
		} else {
			text = subject + ": " + text
		}
	}
	if r := []rune(text); len(r) > smsMaxLength {
		text = string(r[:smsMaxLength-3]) + "..."
	}
	return text
}
