package transport

import (
	"context"
	"fmt"
)

// NewEmailSender builds the email sender selected by cfg.Provider.
func NewEmailSender(ctx context.Context, cfg Config) (Sender, error) {
	switch cfg.Provider {
	case ProviderPostmark:
		s, err := NewPostmarkSender(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ProviderSES:
		s, err := NewSESSender(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ProviderDev, "":
		if cfg.DevMailDir == "" {
			return nil, fmt.Errorf("%w: DevMailDir is required", ErrInvalidConfig)
		}
		return NewDevSender(cfg.DevMailDir), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// NewSMSSender builds the SMS sender. It returns nil, nil when SMS is disabled.
func NewSMSSender(ctx context.Context, cfg Config) (Sender, error) {
	if !cfg.SMSEnabled {
		return nil, nil
	}
	s, err := NewSNSSender(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}
