package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentwise/internal/domain"
)

func TestBookingMachine_TerminalStates(t *testing.T) {
	for _, s := range []domain.BookingStatus{domain.BookingRejected, domain.BookingCancelled, domain.BookingCompleted} {
		assert.True(t, domain.BookingMachine.Terminal(s), "%s should be terminal", s)
	}
	for _, s := range []domain.BookingStatus{domain.BookingPending, domain.BookingAccepted} {
		assert.False(t, domain.BookingMachine.Terminal(s), "%s should not be terminal", s)
	}
}

func TestPaymentMachine_TerminalStates(t *testing.T) {
	assert.True(t, domain.PaymentMachine.Terminal(domain.PaymentFailed))
	assert.True(t, domain.PaymentMachine.Terminal(domain.PaymentRefunded))
	assert.False(t, domain.PaymentMachine.Terminal(domain.PaymentPending))
	assert.False(t, domain.PaymentMachine.Terminal(domain.PaymentValidated))
}

func TestDisputeMachine_TerminalStates(t *testing.T) {
	assert.True(t, domain.DisputeMachine.Terminal(domain.DisputeResolved))
	assert.True(t, domain.DisputeMachine.Terminal(domain.DisputeClosed))
}

func TestMachine_FireRejectsWithPrecondition(t *testing.T) {
	_, err := domain.BookingMachine.Fire(domain.BookingAccepted, domain.BookingEventAccept)

	var trErr *domain.TransitionError
	require.True(t, errors.As(err, &trErr))
	assert.Equal(t, "only pending bookings can be accepted", trErr.Reason)
	assert.Equal(t, "accepted", trErr.Current)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestBookingMachine_CancelSources(t *testing.T) {
	cases := []struct {
		from  domain.BookingStatus
		legal bool
	}{
		{domain.BookingPending, true},
		{domain.BookingAccepted, true},
		{domain.BookingCompleted, false},
		{domain.BookingRejected, false},
		{domain.BookingCancelled, false},
	}
	for _, tc := range cases {
		dst, err := domain.BookingMachine.Fire(tc.from, domain.BookingEventCancel)
		if tc.legal {
			require.NoError(t, err, "cancel from %s", tc.from)
			assert.Equal(t, domain.BookingCancelled, dst)
		} else {
			assert.Equal(t, domain.KindConflict, domain.KindOf(err), "cancel from %s", tc.from)
		}
	}
}

func TestPaymentMachine_RefundOnlyFromValidated(t *testing.T) {
	for _, s := range []domain.PaymentStatus{domain.PaymentPending, domain.PaymentFailed, domain.PaymentRefunded} {
		_, err := domain.PaymentMachine.Fire(s, domain.PaymentEventRefund)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err), "refund from %s", s)
	}
	dst, err := domain.PaymentMachine.Fire(domain.PaymentValidated, domain.PaymentEventRefund)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, dst)
}

func TestListingMachine_ApproveTwice(t *testing.T) {
	dst, err := domain.ListingMachine.Fire(domain.ModerationPending, domain.ListingEventApprove)
	require.NoError(t, err)
	require.Equal(t, domain.ModerationApproved, dst)

	_, err = domain.ListingMachine.Fire(dst, domain.ListingEventApprove)
	assert.EqualError(t, err, "listing approve: listing is already approved")
}

func TestMachine_Events(t *testing.T) {
	assert.Equal(t,
		[]domain.BookingEvent{domain.BookingEventAccept, domain.BookingEventReject, domain.BookingEventCancel, domain.BookingEventComplete},
		domain.BookingMachine.Events(),
	)
}
