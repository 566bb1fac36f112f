package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// DisputeValidator validates dispute transitions.
type DisputeValidator = domain.TransitionValidator[domain.DisputeStatus, domain.DisputeEvent]

// DisputeService orchestrates the dispute lifecycle.
type DisputeService struct {
	base
	disputes  domain.DisputeRepository
	bookings  domain.BookingRepository
	validator DisputeValidator
}

// NewDisputeService creates a service with the given adapters.
func NewDisputeService(
	disputes domain.DisputeRepository,
	bookings domain.BookingRepository,
	validator DisputeValidator,
	publisher domain.EventPublisher,
	opts ...Option,
) *DisputeService {
	return &DisputeService{
		base:      newBase(publisher, opts),
		disputes:  disputes,
		bookings:  bookings,
		validator: validator,
	}
}

// Open creates a dispute, linked to a booking when req.BookingID is set.
func (s *DisputeService) Open(ctx context.Context, opener domain.Actor, req domain.DisputeRequest) (domain.Dispute, error) {
	var booking *domain.Booking
	if req.BookingID != "" {
		b, err := s.bookings.GetByID(ctx, req.BookingID)
		if err != nil {
			return domain.Dispute{}, err
		}
		booking = &b
	}
	id, err := newEntityID("dispute")
	if err != nil {
		return domain.Dispute{}, err
	}
	d, err := domain.NewDispute(id, opener, booking, req, s.now())
	if err != nil {
		return domain.Dispute{}, err
	}
	if err := s.disputes.Create(ctx, d); err != nil {
		return domain.Dispute{}, fmt.Errorf("creating dispute: %w", err)
	}
	s.publish(ctx, s.event(d, domain.DisputeEventOpen, opener))
	return d, nil
}

// Get returns a dispute visible to the actor.
func (s *DisputeService) Get(ctx context.Context, actor domain.Actor, id string) (domain.Dispute, error) {
	d, err := s.disputes.GetByID(ctx, id)
	if err != nil {
		return domain.Dispute{}, err
	}
	if err := d.AuthorizeComment(actor); err != nil {
		return domain.Dispute{}, &domain.ForbiddenError{ActorID: actor.ID, Action: "view this dispute"}
	}
	return d, nil
}

// List returns disputes matching the given filter.
func (s *DisputeService) List(ctx context.Context, filter domain.DisputeFilter) ([]domain.Dispute, error) {
	return s.disputes.List(ctx, filter)
}

// AddComment appends a comment in any state. The first comment on an open
// dispute moves it in progress.
func (s *DisputeService) AddComment(ctx context.Context, actor domain.Actor, id, text string) (domain.Dispute, error) {
	d, err := s.disputes.GetByID(ctx, id)
	if err != nil {
		return domain.Dispute{}, err
	}
	if err := d.AuthorizeComment(actor); err != nil {
		return domain.Dispute{}, err
	}
	c, err := domain.NewComment(actor.ID, text, s.now())
	if err != nil {
		return domain.Dispute{}, err
	}
	var to domain.DisputeStatus
	if d.Status == domain.DisputeOpen {
		if to, err = s.validator.Apply(ctx, d.Status, domain.DisputeEventComment); err != nil {
			return domain.Dispute{}, err
		}
	}
	return s.save(ctx, d.WithComment(c, to), domain.DisputeEventComment, actor)
}

// Resolve settles a dispute with a resolution text.
func (s *DisputeService) Resolve(ctx context.Context, actor domain.Actor, id, resolution string) (domain.Dispute, error) {
	text, err := domain.NewResolution(resolution)
	if err != nil {
		return domain.Dispute{}, err
	}
	return s.settle(ctx, actor, id, domain.DisputeEventResolve, func(d domain.Dispute, to domain.DisputeStatus) domain.Dispute {
		return d.Resolved(to, text, s.now())
	})
}

// Close ends a dispute without a resolution.
func (s *DisputeService) Close(ctx context.Context, actor domain.Actor, id string) (domain.Dispute, error) {
	return s.settle(ctx, actor, id, domain.DisputeEventClose, func(d domain.Dispute, to domain.DisputeStatus) domain.Dispute {
		return d.Closed(to, s.now())
	})
}

func (s *DisputeService) settle(
	ctx context.Context,
	actor domain.Actor,
	id string,
	event domain.DisputeEvent,
	mutate func(domain.Dispute, domain.DisputeStatus) domain.Dispute,
) (domain.Dispute, error) {
	d, err := s.disputes.GetByID(ctx, id)
	if err != nil {
		return domain.Dispute{}, err
	}
	if err := d.AuthorizeSettle(actor); err != nil {
		return domain.Dispute{}, err
	}
	to, err := s.validator.Apply(ctx, d.Status, event)
	if err != nil {
		return domain.Dispute{}, err
	}
	return s.save(ctx, mutate(d, to), event, actor)
}

func (s *DisputeService) save(ctx context.Context, d domain.Dispute, event domain.DisputeEvent, actor domain.Actor) (domain.Dispute, error) {
	if err := s.disputes.Update(ctx, d); err != nil {
		return domain.Dispute{}, fmt.Errorf("updating dispute: %w", err)
	}
	d.Version++
	s.publish(ctx, s.event(d, event, actor))
	return d, nil
}

func (s *DisputeService) event(d domain.Dispute, event domain.DisputeEvent, actor domain.Actor) domain.LifecycleEvent {
	return domain.LifecycleEvent{
		Entity:     "dispute",
		EntityID:   d.ID,
		Event:      string(event),
		Status:     string(d.Status),
		ActorID:    actor.ID,
		Recipients: recipients(actor.ID, d.TenantID, d.OwnerID),
	}
}
