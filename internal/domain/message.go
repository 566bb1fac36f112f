package domain

import (
	"strings"
	"time"
)

const maxMessageLength = 5000

// Message is a note exchanged between the parties of a booking.
type Message struct {
	ID          string
	BookingID   string
	SenderID    string
	RecipientID string
	Content     string
	SentAt      time.Time
	Read        bool
	ReadAt      *time.Time
	EditedAt    *time.Time
	Version     int64
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalid("content", "must not be empty")
	}
	if len([]rune(content)) > maxMessageLength {
		return "", invalid("content", "must be at most %d characters", maxMessageLength)
	}
	return content, nil
}

// NewMessage sends content from one booking party to the other.
func NewMessage(id string, booking Booking, sender Actor, content string, now time.Time) (Message, error) {
	if !booking.IsParty(sender) {
		return Message{}, sender.forbid("message on this booking")
	}
	content, err := validateContent(content)
	if err != nil {
		return Message{}, err
	}
	return Message{
		ID:          id,
		BookingID:   booking.ID,
		SenderID:    sender.ID,
		RecipientID: booking.Counterparty(sender.ID),
		Content:     content,
		SentAt:      now,
	}, nil
}

// MarkRead flags the message as read by its recipient. Marking an already
// read message keeps the first read time.
func (m Message) MarkRead(actor Actor, now time.Time) (Message, error) {
	if actor.ID != m.RecipientID {
		return Message{}, actor.forbid("mark this message as read")
	}
	if m.Read {
		return m, nil
	}
	m.Read = true
	m.ReadAt = &now
	return m, nil
}

// Edit replaces the content on behalf of the sender.
func (m Message) Edit(actor Actor, content string, now time.Time) (Message, error) {
	if actor.ID != m.SenderID {
		return Message{}, actor.forbid("edit this message")
	}
	content, err := validateContent(content)
	if err != nil {
		return Message{}, err
	}
	m.Content = content
	m.EditedAt = &now
	return m, nil
}
