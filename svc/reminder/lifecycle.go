package reminder

import (
	"errors"

	"github.com/dmitrymomot/remindkit/pkg/statemachine"
)

type State string

const (
	StateScheduled State = "scheduled"
	StateDue       State = "due"
	StateSent      State = "sent"
	StateExpired   State = "expired"
	StateCancelled State = "cancelled"
)

type Event string

const (
	EventArrive Event = "arrive"
	EventFire   Event = "fire"
	EventExpire Event = "expire"
	EventCancel Event = "cancel"
	EventUpdate Event = "update"
)

type transition = statemachine.Transition[State, Event]

var lifecycle = statemachine.MustNew(
	transition{From: StateScheduled, Event: EventArrive, To: StateDue},
	transition{From: StateDue, Event: EventFire, To: StateSent},
	transition{From: StateSent, Event: EventExpire, To: StateExpired},
	transition{From: StateScheduled, Event: EventCancel, To: StateCancelled},
	transition{From: StateDue, Event: EventCancel, To: StateCancelled},
	transition{From: StateScheduled, Event: EventUpdate, To: StateScheduled},
	transition{From: StateDue, Event: EventUpdate, To: StateScheduled},
)

// CanTransition reports whether event is allowed in state from.
func CanTransition(from State, event Event) bool {
	return lifecycle.Can(from, event)
}

// Transition returns the state event leads to, or ErrInvalidState.
func Transition(from State, event Event) (State, error) {
	to, err := lifecycle.Next(from, event)
	if err != nil {
		return "", errors.Join(ErrInvalidState, err)
	}
	return to, nil
}

// IsTerminal reports whether no further lifecycle events apply to s.
func IsTerminal(s State) bool {
	return lifecycle.Terminal(s)
}
