package delivery

import "errors"

var (
	// ErrTransport wraps every failed send.
	ErrTransport = errors.New("delivery: transport failed")

	// ErrUnknownChannel is returned when no sender is registered for a payload's channel.
	ErrUnknownChannel = errors.New("delivery: no sender for channel")
)
