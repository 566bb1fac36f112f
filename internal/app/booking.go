package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// BookingValidator validates booking transitions.
type BookingValidator = domain.TransitionValidator[domain.BookingStatus, domain.BookingEvent]

// BookingService orchestrates the booking lifecycle.
type BookingService struct {
	base
	bookings  domain.BookingRepository
	listings  domain.ListingRepository
	validator BookingValidator
}

// NewBookingService creates a service with the given adapters.
func NewBookingService(
	bookings domain.BookingRepository,
	listings domain.ListingRepository,
	validator BookingValidator,
	publisher domain.EventPublisher,
	opts ...Option,
) *BookingService {
	return &BookingService{
		base:      newBase(publisher, opts),
		bookings:  bookings,
		listings:  listings,
		validator: validator,
	}
}

// Create persists a pending booking on an approved and available listing.
func (s *BookingService) Create(ctx context.Context, tenant domain.Actor, req domain.BookingRequest) (domain.Booking, error) {
	listing, err := s.listings.GetByID(ctx, req.ListingID)
	if err != nil {
		return domain.Booking{}, err
	}
	id, err := newEntityID("booking")
	if err != nil {
		return domain.Booking{}, err
	}
	b, err := domain.NewBooking(id, listing, tenant, req, s.now())
	if err != nil {
		return domain.Booking{}, err
	}
	if err := s.checkOverlap(ctx, b); err != nil {
		return domain.Booking{}, err
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return domain.Booking{}, fmt.Errorf("creating booking: %w", err)
	}
	s.publish(ctx, s.event(b, domain.BookingEventCreate, tenant))
	return b, nil
}

// Get returns a booking visible to the actor.
func (s *BookingService) Get(ctx context.Context, actor domain.Actor, id string) (domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if !b.IsParty(actor) && !actor.IsPrivileged() {
		return domain.Booking{}, &domain.ForbiddenError{ActorID: actor.ID, Action: "view this booking"}
	}
	return b, nil
}

// List returns bookings matching the given filter.
func (s *BookingService) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	return s.bookings.List(ctx, filter)
}

// Accept confirms a pending booking. The listing must still be approved
// and the period must not overlap another accepted booking.
func (s *BookingService) Accept(ctx context.Context, actor domain.Actor, id string) (domain.Booking, error) {
	return s.transition(ctx, actor, id, domain.BookingEventAccept, "", func(ctx context.Context, b domain.Booking) error {
		listing, err := s.listings.GetByID(ctx, b.ListingID)
		if err != nil {
			return err
		}
		if listing.Moderation != domain.ModerationApproved {
			return &domain.ConflictError{Entity: "booking", Reason: "listing is no longer approved"}
		}
		return s.checkOverlap(ctx, b)
	})
}

// Reject declines a pending booking.
func (s *BookingService) Reject(ctx context.Context, actor domain.Actor, id, reason string) (domain.Booking, error) {
	return s.transition(ctx, actor, id, domain.BookingEventReject, reason, nil)
}

// Cancel withdraws a pending or accepted booking.
func (s *BookingService) Cancel(ctx context.Context, actor domain.Actor, id, reason string) (domain.Booking, error) {
	return s.transition(ctx, actor, id, domain.BookingEventCancel, reason, nil)
}

// Complete closes an accepted booking.
func (s *BookingService) Complete(ctx context.Context, actor domain.Actor, id string) (domain.Booking, error) {
	return s.transition(ctx, actor, id, domain.BookingEventComplete, "", nil)
}

func (s *BookingService) transition(
	ctx context.Context,
	actor domain.Actor,
	id string,
	event domain.BookingEvent,
	reason string,
	guard func(context.Context, domain.Booking) error,
) (domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := b.Authorize(actor, event); err != nil {
		return domain.Booking{}, err
	}
	to, err := s.validator.Apply(ctx, b.Status, event)
	if err != nil {
		return domain.Booking{}, err
	}
	if guard != nil {
		if err := guard(ctx, b); err != nil {
			return domain.Booking{}, err
		}
	}

	b = b.Moved(to, actor, reason, s.now())
	if err := s.bookings.Update(ctx, b); err != nil {
		return domain.Booking{}, fmt.Errorf("updating booking: %w", err)
	}
	b.Version++

	s.publish(ctx, s.event(b, event, actor))
	return b, nil
}

// checkOverlap fails when another accepted booking of the same listing
// shares a night with b.
func (s *BookingService) checkOverlap(ctx context.Context, b domain.Booking) error {
	accepted := domain.BookingAccepted
	others, err := s.bookings.List(ctx, domain.BookingFilter{ListingID: b.ListingID, Status: &accepted})
	if err != nil {
		return fmt.Errorf("listing accepted bookings: %w", err)
	}
	for _, o := range others {
		if o.ID != b.ID && o.Period.Overlaps(b.Period) {
			return &domain.ConflictError{Entity: "booking", Reason: "listing is already booked for an overlapping period"}
		}
	}
	return nil
}

func (s *BookingService) event(b domain.Booking, event domain.BookingEvent, actor domain.Actor) domain.LifecycleEvent {
	return domain.LifecycleEvent{
		Entity:     "booking",
		EntityID:   b.ID,
		Event:      string(event),
		Status:     string(b.Status),
		ActorID:    actor.ID,
		Recipients: recipients(actor.ID, b.TenantID, b.OwnerID),
	}
}
