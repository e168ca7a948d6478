package transport

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Sender delivers a single message over one channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a plain function to the Sender interface.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Message is a channel-agnostic notification.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Tag     string `json:"tag,omitempty"` // Optional provider tag
}

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
)

// Validate checks the fields every channel needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Body) == "" && strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject or body is required", ErrInvalidMessage)
	}
	return nil
}

func (m Message) validateEmail() error {
	if err := m.Validate(); err != nil {
		return err
	}
	if !emailRegex.MatchString(m.To) {
		return fmt.Errorf("%w: recipient must be a valid email address", ErrInvalidMessage)
	}
	return nil
}

func (m Message) validatePhone() error {
	if err := m.Validate(); err != nil {
		return err
	}
	if !phoneRegex.MatchString(m.To) {
		return fmt.Errorf("%w: recipient must be an E.164 phone number", ErrInvalidMessage)
	}
	return nil
}

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}
