package reminder

import "errors"

var (
	// ErrValidation is returned for malformed input and for goals the
	// requester does not own.
	ErrValidation = errors.New("reminder: validation failed")

	// ErrNotFound is returned when a reminder, or the user it belongs to, does not exist.
	ErrNotFound = errors.New("reminder: not found")

	// ErrAlreadyExists is returned by repositories on duplicate ids.
	ErrAlreadyExists = errors.New("reminder: already exists")

	// ErrInvalidState is returned when a change is not allowed in the reminder's lifecycle state.
	ErrInvalidState = errors.New("reminder: operation not allowed in current state")

	// ErrConflict is returned when a reminder was sent while an update was in flight.
	ErrConflict = errors.New("reminder: concurrent modification")

	// ErrNoRecipient is returned when a reminder's channel has no address to deliver to.
	ErrNoRecipient = errors.New("reminder: no recipient for channel")
)
