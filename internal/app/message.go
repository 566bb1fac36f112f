package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// MessageService handles the conversation attached to a booking.
type MessageService struct {
	base
	messages domain.MessageRepository
	bookings domain.BookingRepository
}

// NewMessageService creates a service with the given adapters.
func NewMessageService(messages domain.MessageRepository, bookings domain.BookingRepository, publisher domain.EventPublisher, opts ...Option) *MessageService {
	return &MessageService{
		base:     newBase(publisher, opts),
		messages: messages,
		bookings: bookings,
	}
}

// Send posts a message from one booking party to the other.
func (s *MessageService) Send(ctx context.Context, sender domain.Actor, bookingID, content string) (domain.Message, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return domain.Message{}, err
	}
	id, err := newEntityID("message")
	if err != nil {
		return domain.Message{}, err
	}
	m, err := domain.NewMessage(id, b, sender, content, s.now())
	if err != nil {
		return domain.Message{}, err
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return domain.Message{}, fmt.Errorf("creating message: %w", err)
	}
	s.publish(ctx, domain.LifecycleEvent{
		Entity:     "message",
		EntityID:   m.ID,
		Event:      "send",
		ActorID:    sender.ID,
		Recipients: []string{m.RecipientID},
	})
	return m, nil
}

// List returns the conversation of a booking to one of its parties.
func (s *MessageService) List(ctx context.Context, actor domain.Actor, bookingID string) ([]domain.Message, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(actor) && !actor.IsAdmin() {
		return nil, &domain.ForbiddenError{ActorID: actor.ID, Action: "read messages of this booking"}
	}
	return s.messages.ListByBooking(ctx, bookingID)
}

// MarkRead flags a message as read by its recipient.
func (s *MessageService) MarkRead(ctx context.Context, actor domain.Actor, id string) (domain.Message, error) {
	m, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return domain.Message{}, err
	}
	if m.Read && actor.ID == m.RecipientID {
		return m, nil
	}
	m, err = m.MarkRead(actor, s.now())
	if err != nil {
		return domain.Message{}, err
	}
	return s.update(ctx, m)
}

// Edit replaces the content of a message on behalf of its sender.
func (s *MessageService) Edit(ctx context.Context, actor domain.Actor, id, content string) (domain.Message, error) {
	m, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return domain.Message{}, err
	}
	m, err = m.Edit(actor, content, s.now())
	if err != nil {
		return domain.Message{}, err
	}
	return s.update(ctx, m)
}

func (s *MessageService) update(ctx context.Context, m domain.Message) (domain.Message, error) {
	if err := s.messages.Update(ctx, m); err != nil {
		return domain.Message{}, fmt.Errorf("updating message: %w", err)
	}
	m.Version++
	return m, nil
}
