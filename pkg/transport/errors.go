package transport

import "errors"

var (
	ErrSendFailed      = errors.New("transport: failed to send message")
	ErrInvalidMessage  = errors.New("transport: invalid message")
	ErrInvalidConfig   = errors.New("transport: invalid config")
	ErrUnknownProvider = errors.New("transport: unknown email provider")
)
