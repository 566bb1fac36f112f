package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// Compile-time checks: every lifecycle has a looplab-backed validator.
var (
	_ domain.TransitionValidator[domain.ModerationStatus, domain.ListingEvent]        = (*Validator[domain.ModerationStatus, domain.ListingEvent])(nil)
	_ domain.TransitionValidator[domain.BookingStatus, domain.BookingEvent]           = (*Validator[domain.BookingStatus, domain.BookingEvent])(nil)
	_ domain.TransitionValidator[domain.PaymentStatus, domain.PaymentEvent]           = (*Validator[domain.PaymentStatus, domain.PaymentEvent])(nil)
	_ domain.TransitionValidator[domain.DisputeStatus, domain.DisputeEvent]           = (*Validator[domain.DisputeStatus, domain.DisputeEvent])(nil)
	_ domain.TransitionValidator[domain.SubscriptionStatus, domain.SubscriptionEvent] = (*Validator[domain.SubscriptionStatus, domain.SubscriptionEvent])(nil)
	_ domain.TransitionValidator[domain.ContributionStatus, domain.ContributionEvent] = (*Validator[domain.ContributionStatus, domain.ContributionEvent])(nil)
)

// buildEvents converts a domain transition table into looplab/fsm EventDesc
// format. Transitions with the same event+destination are consolidated into
// a single EventDesc with multiple source states (e.g., "cancel" from
// "pending" and "accepted" both go to "cancelled").
func buildEvents[S ~string, E ~string](transitions []domain.Transition[S, E]) []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range transitions {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the entity's current state, because looplab/fsm tracks state internally.
type Validator[S ~string, E ~string] struct {
	machine domain.Machine[S, E]
	events  []loopfsm.EventDesc
}

// New creates an FSM-backed validator for one lifecycle.
func New[S ~string, E ~string](machine domain.Machine[S, E]) *Validator[S, E] {
	return &Validator[S, E]{
		machine: machine,
		events:  buildEvents(machine.Transitions),
	}
}

// Entity names the lifecycle this validator guards.
func (v *Validator[S, E]) Entity() string {
	return v.machine.Entity
}

// Apply checks if the given event is valid from the current state and
// returns the destination state. Returns a *domain.TransitionError carrying
// the violated precondition if the transition is not allowed.
func (v *Validator[S, E]) Apply(ctx context.Context, current S, event E) (S, error) {
	machine := loopfsm.NewFSM(string(current), v.events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var noTransition loopfsm.NoTransitionError
		var unknownEvent loopfsm.UnknownEventError
		if errors.As(err, &invalidEvent) || errors.As(err, &noTransition) || errors.As(err, &unknownEvent) {
			return "", v.machine.Reject(current, event)
		}
		return "", err
	}

	return S(machine.Current()), nil
}
