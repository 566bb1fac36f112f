package domain

import "context"

// Transition defines a valid state change: an event moves an entity from Src to Dst.
type Transition[S ~string, E ~string] struct {
	Event E
	Src   S
	Dst   S
}

// Machine is the transition table of one lifecycle. It is pure domain
// knowledge; adapters turn it into an executable state machine.
type Machine[S ~string, E ~string] struct {
	Entity      string
	Transitions []Transition[S, E]
	// Preconditions names, per event, the rule a rejected transition violated.
	Preconditions map[E]string
}

// TransitionValidator applies an event to a current state and returns the
// destination state, or a *TransitionError if the event is not allowed.
type TransitionValidator[S ~string, E ~string] interface {
	Apply(ctx context.Context, current S, event E) (S, error)
}

// Fire is the table lookup behind every validator: it returns the
// destination of event from current.
func (m Machine[S, E]) Fire(current S, event E) (S, error) {
	for _, t := range m.Transitions {
		if t.Event == event && t.Src == current {
			return t.Dst, nil
		}
	}
	return "", m.Reject(current, event)
}

// Reject builds the error reported when event is not valid from current.
func (m Machine[S, E]) Reject(current S, event E) *TransitionError {
	return &TransitionError{
		Entity:  m.Entity,
		Event:   string(event),
		Current: string(current),
		Reason:  m.Preconditions[event],
	}
}

// Terminal reports whether no transition leaves s.
func (m Machine[S, E]) Terminal(s S) bool {
	for _, t := range m.Transitions {
		if t.Src == s {
			return false
		}
	}
	return true
}

// Events lists the distinct events of the machine in declaration order.
func (m Machine[S, E]) Events() []E {
	seen := make(map[E]bool)
	var out []E
	for _, t := range m.Transitions {
		if !seen[t.Event] {
			seen[t.Event] = true
			out = append(out, t.Event)
		}
	}
	return out
}
