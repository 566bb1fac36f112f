package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentwise/internal/domain"
)

func TestBooking_Create(t *testing.T) {
	h := newHarness(t)
	l := h.approvedListing(t)

	b := h.booking(t, l, tenant, "2025-06-01", "2025-06-10")
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, owner.ID, b.OwnerID)
	assert.True(t, b.TotalPrice.Equal(xof(t, "135000")))
	assert.Equal(t, []string{owner.ID}, h.pub.last().Recipients)
}

func TestBooking_CreateOnUnavailableListing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l, err := h.Listings.Create(ctx, owner, listingDetails(t))
	require.NoError(t, err)

	_, err = h.Bookings.Create(ctx, tenant, domain.BookingRequest{
		ListingID: l.ID, Period: period(t, "2025-06-01", "2025-06-02"), Occupants: 1,
	})
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = h.Bookings.Create(ctx, tenant, domain.BookingRequest{ListingID: "missing", Occupants: 1})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestBooking_AcceptTwiceFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.acceptedBooking(t)

	_, err := h.Bookings.Accept(ctx, owner, b.ID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.EqualError(t, err, "booking accept: only pending bookings can be accepted")

	stored, err := h.Bookings.Get(ctx, owner, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingAccepted, stored.Status)
}

func TestBooking_OnlyOwnerAccepts(t *testing.T) {
	h := newHarness(t)
	b := h.booking(t, h.approvedListing(t), tenant, "2025-06-01", "2025-06-03")

	_, err := h.Bookings.Accept(context.Background(), tenant, b.ID)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestBooking_AcceptRejectsOverlap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.approvedListing(t)
	first := h.booking(t, l, tenant, "2025-06-01", "2025-06-10")
	second := h.booking(t, l, tenant2, "2025-06-05", "2025-06-12")

	_, err := h.Bookings.Accept(ctx, owner, first.ID)
	require.NoError(t, err)

	_, err = h.Bookings.Accept(ctx, owner, second.ID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = h.Bookings.Create(ctx, tenant2, domain.BookingRequest{
		ListingID: l.ID, Period: period(t, "2025-06-09", "2025-06-11"), Occupants: 1,
	})
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	// Check-out day is free again.
	h.booking(t, l, tenant2, "2025-06-10", "2025-06-12")
}

func TestBooking_AcceptRequiresApprovedListing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.approvedListing(t)
	b := h.booking(t, l, tenant, "2025-06-01", "2025-06-03")

	_, err := h.Listings.Reject(ctx, admin, l.ID, "fraud")
	require.NoError(t, err)

	_, err = h.Bookings.Accept(ctx, owner, b.ID)
	assert.EqualError(t, err, "booking: listing is no longer approved")
}

func TestBooking_CancelLegality(t *testing.T) {
	ctx := context.Background()

	t.Run("from pending by tenant", func(t *testing.T) {
		h := newHarness(t)
		b := h.booking(t, h.approvedListing(t), tenant, "2025-06-01", "2025-06-03")
		b, err := h.Bookings.Cancel(ctx, tenant, b.ID, "plans changed")
		require.NoError(t, err)
		assert.Equal(t, domain.BookingCancelled, b.Status)
		assert.Equal(t, tenant.ID, b.CancelledBy)
		assert.Equal(t, "plans changed", b.CancellationReason)
		assert.Equal(t, []string{owner.ID}, h.pub.last().Recipients)
	})

	t.Run("from accepted by admin", func(t *testing.T) {
		h := newHarness(t)
		b := h.acceptedBooking(t)
		b, err := h.Bookings.Cancel(ctx, admin, b.ID, "")
		require.NoError(t, err)
		assert.Equal(t, domain.BookingCancelled, b.Status)
		assert.ElementsMatch(t, []string{tenant.ID, owner.ID}, h.pub.last().Recipients)
	})

	t.Run("not from terminal states", func(t *testing.T) {
		h := newHarness(t)
		l := h.approvedListing(t)

		completed := h.acceptedBookingOn(t, l, "2025-07-01", "2025-07-03")
		_, err := h.Bookings.Complete(ctx, admin, completed.ID)
		require.NoError(t, err)

		rejected := h.booking(t, l, tenant, "2025-08-01", "2025-08-03")
		_, err = h.Bookings.Reject(ctx, owner, rejected.ID, "maintenance")
		require.NoError(t, err)

		cancelled := h.booking(t, l, tenant, "2025-09-01", "2025-09-03")
		_, err = h.Bookings.Cancel(ctx, tenant, cancelled.ID, "")
		require.NoError(t, err)

		for _, id := range []string{completed.ID, rejected.ID, cancelled.ID} {
			_, err := h.Bookings.Cancel(ctx, tenant, id, "")
			assert.Equal(t, domain.KindConflict, domain.KindOf(err), id)
		}
	})

	t.Run("strangers are forbidden", func(t *testing.T) {
		h := newHarness(t)
		b := h.booking(t, h.approvedListing(t), tenant, "2025-06-01", "2025-06-03")
		_, err := h.Bookings.Cancel(ctx, tenant2, b.ID, "")
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	})
}

func TestBooking_CompleteIsPrivileged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.acceptedBooking(t)

	_, err := h.Bookings.Complete(ctx, owner, b.ID)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	b, err = h.Bookings.Complete(ctx, domain.SystemActor, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, b.Status)
	assert.True(t, b.Terminal())
}

func TestBooking_GetIsRestrictedToParties(t *testing.T) {
	h := newHarness(t)
	b := h.acceptedBooking(t)

	_, err := h.Bookings.Get(context.Background(), tenant2, b.ID)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	_, err = h.Bookings.Get(context.Background(), admin, b.ID)
	assert.NoError(t, err)
}

func (h *harness) acceptedBookingOn(t *testing.T, l domain.Listing, start, end string) domain.Booking {
	t.Helper()
	b := h.booking(t, l, tenant, start, end)
	b, err := h.Bookings.Accept(context.Background(), owner, b.ID)
	require.NoError(t, err)
	return b
}
