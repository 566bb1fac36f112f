package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentwise/internal/domain"
)

func TestNewPeriod(t *testing.T) {
	p := period(t, "2025-06-01", "2025-06-10")
	assert.Equal(t, 9, p.Nights())

	_, err := domain.NewPeriod(p.End, p.Start)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	_, err = domain.NewPeriod(p.Start, p.Start)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestPeriod_Overlaps(t *testing.T) {
	june := period(t, "2025-06-01", "2025-06-10")
	assert.True(t, june.Overlaps(period(t, "2025-06-09", "2025-06-12")))
	assert.False(t, june.Overlaps(period(t, "2025-06-10", "2025-06-12")), "checkout day is free")
	assert.False(t, june.Overlaps(period(t, "2025-05-01", "2025-06-01")))
}

func TestNewBooking(t *testing.T) {
	listing := bookableListing(t)
	b, err := domain.NewBooking("booking-1", listing, tenant, domain.BookingRequest{
		Period:    period(t, "2025-06-01", "2025-06-10"),
		Occupants: 2,
		Message:   "  Arriving late  ",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, owner.ID, b.OwnerID, "owner is denormalized from the listing")
	assert.Equal(t, listing.ID, b.ListingID)
	assert.True(t, b.TotalPrice.Equal(xof(t, "135000")), "9 nights at 15000")
	assert.True(t, b.Deposit.Equal(listing.Deposit))
	assert.Equal(t, "Arriving late", b.Message)
}

func TestNewBooking_Preconditions(t *testing.T) {
	req := domain.BookingRequest{Period: period(t, "2025-06-01", "2025-06-10"), Occupants: 1}

	pending, err := domain.NewListing("listing-2", owner.ID, details(t), now)
	require.NoError(t, err)
	_, err = domain.NewBooking("b", pending, tenant, req, now)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err), "listing awaiting moderation")

	hidden, err := bookableListing(t).Unpublish(owner, now)
	require.NoError(t, err)
	_, err = domain.NewBooking("b", hidden, tenant, req, now)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err), "unpublished listing")

	_, err = domain.NewBooking("b", bookableListing(t), owner, req, now)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err), "owner booking own listing")

	crowd := req
	crowd.Occupants = 4
	_, err = domain.NewBooking("b", bookableListing(t), tenant, crowd, now)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	empty := req
	empty.Period = domain.Period{}
	_, err = domain.NewBooking("b", bookableListing(t), tenant, empty, now)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestBooking_Authorize(t *testing.T) {
	b := acceptedBooking(t)
	stranger := domain.Actor{ID: "x", Role: domain.RoleTenant}

	assert.NoError(t, b.Authorize(owner, domain.BookingEventAccept))
	assert.Error(t, b.Authorize(tenant, domain.BookingEventAccept))
	assert.Error(t, b.Authorize(tenant, domain.BookingEventReject))

	assert.NoError(t, b.Authorize(tenant, domain.BookingEventCancel))
	assert.NoError(t, b.Authorize(owner, domain.BookingEventCancel))
	assert.NoError(t, b.Authorize(admin, domain.BookingEventCancel))
	assert.Error(t, b.Authorize(stranger, domain.BookingEventCancel))

	assert.NoError(t, b.Authorize(admin, domain.BookingEventComplete))
	assert.NoError(t, b.Authorize(domain.SystemActor, domain.BookingEventComplete))
	assert.Equal(t, domain.KindForbidden, domain.KindOf(b.Authorize(owner, domain.BookingEventComplete)))
}

func TestBooking_Moved(t *testing.T) {
	b := acceptedBooking(t)

	cancelled := b.Moved(domain.BookingCancelled, tenant, " change of plans ", now)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.Equal(t, tenant.ID, cancelled.CancelledBy)
	assert.Equal(t, "change of plans", cancelled.CancellationReason)
	assert.True(t, cancelled.Terminal())

	assert.Equal(t, domain.BookingAccepted, b.Status, "original value is untouched")
}

func TestBooking_Counterparty(t *testing.T) {
	b := acceptedBooking(t)
	assert.Equal(t, owner.ID, b.Counterparty(tenant.ID))
	assert.Equal(t, tenant.ID, b.Counterparty(owner.ID))
}
