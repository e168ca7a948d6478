package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrNoTransition       = errors.New("statemachine: no transition available")
	ErrConflictingTargets = errors.New("statemachine: conflicting transition targets")
)

// NoTransitionError reports an event that is not allowed in a state.
type NoTransitionError struct {
	State string
	Event string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.State, e.Event)
}

func (e *NoTransitionError) Unwrap() error {
	return ErrNoTransition
}
