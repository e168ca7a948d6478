package statemachine

import (
	"fmt"
	"sort"
)

// Transition moves a machine in state From to state To when Event occurs.
type Transition[S, E comparable] struct {
	From  S
	Event E
	To    S
}

type edge[S, E comparable] struct {
	from  S
	event E
}

// Table is an immutable set of transitions keyed by (state, event).
type Table[S, E comparable] struct {
	next map[edge[S, E]]S
}

// New builds a table. Declaring the same (from, event) pair twice with
// different targets is an error; exact duplicates are ignored.
func New[S, E comparable](transitions ...Transition[S, E]) (*Table[S, E], error) {
	t := &Table[S, E]{next: make(map[edge[S, E]]S, len(transitions))}
	for _, tr := range transitions {
		k := edge[S, E]{from: tr.From, event: tr.Event}
		if to, ok := t.next[k]; ok && to != tr.To {
			return nil, fmt.Errorf("%w: %v on %v leads to both %v and %v",
				ErrConflictingTargets, tr.From, tr.Event, to, tr.To)
		}
		t.next[k] = tr.To
	}
	return t, nil
}

// MustNew is like New but panics on error. Use for package-level tables.
func MustNew[S, E comparable](transitions ...Transition[S, E]) *Table[S, E] {
	t, err := New(transitions...)
	if err != nil {
		panic(err)
	}
	return t
}

// Next returns the state that event leads to from state from.
func (t *Table[S, E]) Next(from S, event E) (S, error) {
	to, ok := t.next[edge[S, E]{from: from, event: event}]
	if !ok {
		var zero S
		return zero, &NoTransitionError{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}
	return to, nil
}

// Can reports whether event is allowed in state from.
func (t *Table[S, E]) Can(from S, event E) bool {
	_, ok := t.next[edge[S, E]{from: from, event: event}]
	return ok
}

// Terminal reports whether no event leaves state s.
func (t *Table[S, E]) Terminal(s S) bool {
	for k := range t.next {
		if k.from == s {
			return false
		}
	}
	return true
}

// Events lists the events allowed in state from, sorted by their string form.
func (t *Table[S, E]) Events(from S) []E {
	var events []E
	for k := range t.next {
		if k.from == from {
			events = append(events, k.event)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return fmt.Sprint(events[i]) < fmt.Sprint(events[j])
	})
	return events
}
