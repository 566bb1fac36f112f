package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/neomorfeo/rentwise/internal/adapter/fsm"
	"github.com/neomorfeo/rentwise/internal/domain"
)

// checkAllTransitions verifies that the looplab machine agrees with the
// domain table on every declared transition.
func checkAllTransitions[S ~string, E ~string](t *testing.T, m domain.Machine[S, E]) {
	t.Helper()
	v := adapter.New(m)
	ctx := context.Background()

	for _, tr := range m.Transitions {
		dst, err := v.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("%s: Apply(%q, %q) unexpected error: %v", m.Entity, tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("%s: Apply(%q, %q) = %q, want %q", m.Entity, tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestValidator_AllTransitions(t *testing.T) {
	checkAllTransitions(t, domain.ListingMachine)
	checkAllTransitions(t, domain.BookingMachine)
	checkAllTransitions(t, domain.PaymentMachine)
	checkAllTransitions(t, domain.DisputeMachine)
	checkAllTransitions(t, domain.SubscriptionMachine)
	checkAllTransitions(t, domain.ContributionMachine)
}

func TestValidator_InvalidTransition(t *testing.T) {
	v := adapter.New(domain.BookingMachine)

	// Can't accept a booking that was already rejected.
	_, err := v.Apply(context.Background(), domain.BookingRejected, domain.BookingEventAccept)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Entity != "booking" {
		t.Errorf("entity = %q, want %q", trErr.Entity, "booking")
	}
	if trErr.Event != string(domain.BookingEventAccept) {
		t.Errorf("event = %q, want %q", trErr.Event, domain.BookingEventAccept)
	}
	if trErr.Current != string(domain.BookingRejected) {
		t.Errorf("current = %q, want %q", trErr.Current, domain.BookingRejected)
	}
	if trErr.Reason != "only pending bookings can be accepted" {
		t.Errorf("reason = %q", trErr.Reason)
	}
}

func TestValidator_UnknownEvent(t *testing.T) {
	v := adapter.New(domain.PaymentMachine)

	_, err := v.Apply(context.Background(), domain.PaymentPending, domain.PaymentEvent("teleport"))
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("kind = %q, want conflict (err: %v)", domain.KindOf(err), err)
	}
}

func TestValidator_PaymentIsMonotonic(t *testing.T) {
	v := adapter.New(domain.PaymentMachine)
	ctx := context.Background()

	for _, from := range []domain.PaymentStatus{domain.PaymentFailed, domain.PaymentRefunded} {
		for _, ev := range domain.PaymentMachine.Events() {
			if _, err := v.Apply(ctx, from, ev); err == nil {
				t.Errorf("Apply(%q, %q) succeeded, want error", from, ev)
			}
		}
	}
}

func TestValidator_BookingLifecycle(t *testing.T) {
	v := adapter.New(domain.BookingMachine)
	ctx := context.Background()

	steps := []struct {
		from  domain.BookingStatus
		event domain.BookingEvent
		want  domain.BookingStatus
	}{
		{domain.BookingPending, domain.BookingEventAccept, domain.BookingAccepted},
		{domain.BookingAccepted, domain.BookingEventComplete, domain.BookingCompleted},
	}

	for _, step := range steps {
		got, err := v.Apply(ctx, step.from, step.event)
		if err != nil {
			t.Fatalf("Apply(%q, %q) error: %v", step.from, step.event, err)
		}
		if got != step.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", step.from, step.event, got, step.want)
		}
	}
}

func TestValidator_CancelFromAccepted(t *testing.T) {
	v := adapter.New(domain.BookingMachine)

	// Cancel is valid from both "pending" and "accepted".
	got, err := v.Apply(context.Background(), domain.BookingAccepted, domain.BookingEventCancel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != domain.BookingCancelled {
		t.Errorf("got %q, want %q", got, domain.BookingCancelled)
	}
}

func TestValidator_DisputeSettledIsFinal(t *testing.T) {
	v := adapter.New(domain.DisputeMachine)

	_, err := v.Apply(context.Background(), domain.DisputeClosed, domain.DisputeEventResolve)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Reason != "dispute is already resolved or closed" {
		t.Errorf("reason = %q", trErr.Reason)
	}
}
