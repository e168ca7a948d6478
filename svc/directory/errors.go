package directory

import "errors"

var (
	ErrUserNotFound = errors.New("directory: user not found")
	ErrGoalNotFound = errors.New("directory: goal not found")
)
