package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentwise/internal/domain"
)

var (
	now    = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	owner  = domain.Actor{ID: "owner-1", Role: domain.RoleOwner}
	tenant = domain.Actor{ID: "tenant-1", Role: domain.RoleTenant}
	admin  = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

func xof(t *testing.T, amount string) domain.Money {
	t.Helper()
	m, err := domain.ParseMoney(amount, "XOF")
	require.NoError(t, err)
	return m
}

func details(t *testing.T) domain.ListingDetails {
	t.Helper()
	addr, err := domain.NewAddress("12 rue des Palmiers", "Plateau", "Abidjan", "Lagunes", "ci", "")
	require.NoError(t, err)
	return domain.ListingDetails{
		Category:    domain.CategoryApartment,
		Title:       "Two-room flat near campus",
		Description: "Furnished, water and electricity included.",
		Price:       xof(t, "15000"),
		Deposit:     xof(t, "50000"),
		Address:     addr,
		Capacity:    3,
		Rooms:       2,
	}
}

// bookableListing returns an approved, available listing with one photo.
func bookableListing(t *testing.T) domain.Listing {
	t.Helper()
	l, err := domain.NewListing("listing-1", owner.ID, details(t), now)
	require.NoError(t, err)
	l = l.WithPhoto(domain.Photo{Key: "p1", URL: "https://cdn/p1"}, now)
	return l.Moderated(domain.ModerationApproved, "", now)
}

func period(t *testing.T, start, end string) domain.Period {
	t.Helper()
	s, err := time.Parse(time.DateOnly, start)
	require.NoError(t, err)
	e, err := time.Parse(time.DateOnly, end)
	require.NoError(t, err)
	p, err := domain.NewPeriod(s, e)
	require.NoError(t, err)
	return p
}

func acceptedBooking(t *testing.T) domain.Booking {
	t.Helper()
	b, err := domain.NewBooking("booking-1", bookableListing(t), tenant, domain.BookingRequest{
		Period:    period(t, "2025-06-01", "2025-06-10"),
		Occupants: 2,
	}, now)
	require.NoError(t, err)
	return b.Moved(domain.BookingAccepted, owner, "", now)
}
