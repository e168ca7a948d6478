// Package statemachine provides a small, immutable transition table for
// finite state machines whose current state is stored elsewhere (a database
// row, a document field) rather than inside the machine itself.
//
// A Table is built once from a list of transitions and is safe for
// concurrent use. Callers ask it where an event leads from a given state:
//
//	table := statemachine.MustNew(
//	    statemachine.Transition[State, Event]{From: Draft, Event: Publish, To: Published},
//	    statemachine.Transition[State, Event]{From: Published, Event: Archive, To: Archived},
//	)
//
//	next, err := table.Next(doc.State, Publish)
//	if err != nil {
//	    return err // *NoTransitionError when the event is not allowed
//	}
//	doc.State = next
package statemachine
