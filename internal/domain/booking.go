package domain

import (
	"strings"
	"time"
)

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// BookingEvent triggers a booking transition.
type BookingEvent string

const (
	BookingEventCreate   BookingEvent = "create"
	BookingEventAccept   BookingEvent = "accept"
	BookingEventReject   BookingEvent = "reject"
	BookingEventCancel   BookingEvent = "cancel"
	BookingEventComplete BookingEvent = "complete"
)

// BookingMachine defines all valid state changes of a booking.
var BookingMachine = Machine[BookingStatus, BookingEvent]{
	Entity: "booking",
	Transitions: []Transition[BookingStatus, BookingEvent]{
		{Event: BookingEventAccept, Src: BookingPending, Dst: BookingAccepted},
		{Event: BookingEventReject, Src: BookingPending, Dst: BookingRejected},
		{Event: BookingEventCancel, Src: BookingPending, Dst: BookingCancelled},
		{Event: BookingEventCancel, Src: BookingAccepted, Dst: BookingCancelled},
		{Event: BookingEventComplete, Src: BookingAccepted, Dst: BookingCompleted},
	},
	Preconditions: map[BookingEvent]string{
		BookingEventAccept:   "only pending bookings can be accepted",
		BookingEventReject:   "only pending bookings can be rejected",
		BookingEventCancel:   "only pending or accepted bookings can be cancelled",
		BookingEventComplete: "only accepted bookings can be completed",
	},
}

const maxBookingMessage = 1000

// Period is a half-open date range [Start, End).
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod validates that end is after start. Both are truncated to the day.
func NewPeriod(start, end time.Time) (Period, error) {
	start = truncateDay(start)
	end = truncateDay(end)
	if !end.After(start) {
		return Period{}, invalid("end_date", "must be after start date")
	}
	return Period{Start: start, End: end}, nil
}

// Nights is the number of nights covered by the period.
func (p Period) Nights() int {
	return int(p.End.Sub(p.Start).Hours() / 24)
}

// Overlaps reports whether two periods share at least one night.
func (p Period) Overlaps(o Period) bool {
	return p.Start.Before(o.End) && o.Start.Before(p.End)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Booking is a tenant's request to rent a listing for a period.
type Booking struct {
	ID                 string
	ListingID          string
	TenantID           string
	OwnerID            string
	Period             Period
	Occupants          int
	TotalPrice         Money
	Deposit            Money
	Message            string
	Status             BookingStatus
	RejectionReason    string
	CancelledBy        string
	CancellationReason string
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// BookingRequest carries the tenant's input for a new booking.
type BookingRequest struct {
	ListingID string
	Period    Period
	Occupants int
	Message   string
}

// NewBooking creates a pending booking on an approved and available listing.
// The owner is copied from the listing so later checks need not re-read it.
func NewBooking(id string, listing Listing, tenant Actor, req BookingRequest, now time.Time) (Booking, error) {
	if tenant.ID == listing.OwnerID {
		return Booking{}, tenant.forbid("book their own listing")
	}
	if !listing.Bookable() {
		return Booking{}, &ConflictError{Entity: "booking", Reason: "listing is not approved and available"}
	}
	if req.Period.Nights() < 1 {
		return Booking{}, invalid("end_date", "must be after start date")
	}
	if req.Occupants < 1 {
		return Booking{}, invalid("occupants", "must be at least 1")
	}
	if listing.Capacity > 0 && req.Occupants > listing.Capacity {
		return Booking{}, invalid("occupants", "listing accepts at most %d occupants", listing.Capacity)
	}
	msg := strings.TrimSpace(req.Message)
	if len([]rune(msg)) > maxBookingMessage {
		return Booking{}, invalid("message", "must be at most %d characters", maxBookingMessage)
	}
	return Booking{
		ID:         id,
		ListingID:  listing.ID,
		TenantID:   tenant.ID,
		OwnerID:    listing.OwnerID,
		Period:     req.Period,
		Occupants:  req.Occupants,
		TotalPrice: listing.Price.Times(req.Period.Nights()),
		Deposit:    listing.Deposit,
		Message:    msg,
		Status:     BookingPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsParty reports whether the actor is the booking's tenant or owner.
func (b Booking) IsParty(actor Actor) bool {
	return actor.ID == b.TenantID || actor.ID == b.OwnerID
}

// Counterparty returns the other party of the booking.
func (b Booking) Counterparty(id string) string {
	if id == b.TenantID {
		return b.OwnerID
	}
	return b.TenantID
}

// Authorize checks that actor may trigger event on this booking.
func (b Booking) Authorize(actor Actor, event BookingEvent) error {
	switch event {
	case BookingEventAccept, BookingEventReject:
		if actor.ID != b.OwnerID {
			return actor.forbid(string(event) + " this booking")
		}
	case BookingEventCancel:
		if !b.IsParty(actor) && !actor.IsAdmin() {
			return actor.forbid("cancel this booking")
		}
	case BookingEventComplete:
		if !actor.IsPrivileged() {
			return actor.forbid("complete this booking")
		}
	}
	return nil
}

// Moved applies a validated transition. Reason is kept for rejections and
// cancellations.
func (b Booking) Moved(to BookingStatus, actor Actor, reason string, now time.Time) Booking {
	b.Status = to
	switch to {
	case BookingRejected:
		b.RejectionReason = strings.TrimSpace(reason)
	case BookingCancelled:
		b.CancelledBy = actor.ID
		b.CancellationReason = strings.TrimSpace(reason)
	}
	b.UpdatedAt = now
	return b
}

// Terminal reports whether no further transition is defined.
func (b Booking) Terminal() bool {
	return BookingMachine.Terminal(b.Status)
}
