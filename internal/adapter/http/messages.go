package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// MessageResponse is the API representation of a booking message.
type MessageResponse struct {
	ID          string `json:"id" doc:"Unique identifier"`
	BookingID   string `json:"booking_id"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
	SentAt      string `json:"sent_at"`
	Read        bool   `json:"read"`
	ReadAt      string `json:"read_at,omitempty"`
	EditedAt    string `json:"edited_at,omitempty"`
}

func toMessageResponse(m domain.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		BookingID:   m.BookingID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		SentAt:      formatTime(m.SentAt),
		Read:        m.Read,
		ReadAt:      formatTimePtr(m.ReadAt),
		EditedAt:    formatTimePtr(m.EditedAt),
	}
}

type MessageOutput struct {
	Body MessageResponse
}

type ListMessagesOutput struct {
	Body []MessageResponse
}

type MessageContentInput struct {
	ID   string `path:"id" doc:"Booking ID when sending, message ID when editing"`
	Body struct {
		Content string `json:"content" minLength:"1" maxLength:"5000"`
	}
}

func (h *handler) registerMessages(api huma.API) {
	svc := h.svc.Messages

	huma.Register(api, huma.Operation{
		OperationID: "send-message",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookings/{id}/messages",
		Summary:     "Send a message to the other party of a booking",
		Tags:        []string{"Messages"},
	}, func(ctx context.Context, input *MessageContentInput) (*MessageOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		m, err := svc.Send(ctx, actor, input.ID, input.Body.Content)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &MessageOutput{Body: toMessageResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-messages",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookings/{id}/messages",
		Summary:     "List the messages of a booking",
		Tags:        []string{"Messages"},
	}, func(ctx context.Context, input *IDInput) (*ListMessagesOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		messages, err := svc.List(ctx, actor, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		resp := make([]MessageResponse, len(messages))
		for i, m := range messages {
			resp[i] = toMessageResponse(m)
		}
		return &ListMessagesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "read-message",
		Method:      http.MethodPost,
		Path:        "/api/v1/messages/{id}/read",
		Summary:     "Mark a message as read",
		Tags:        []string{"Messages"},
	}, func(ctx context.Context, input *IDInput) (*MessageOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		m, err := svc.MarkRead(ctx, actor, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &MessageOutput{Body: toMessageResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "edit-message",
		Method:      http.MethodPatch,
		Path:        "/api/v1/messages/{id}",
		Summary:     "Edit a sent message",
		Tags:        []string{"Messages"},
	}, func(ctx context.Context, input *MessageContentInput) (*MessageOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		m, err := svc.Edit(ctx, actor, input.ID, input.Body.Content)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &MessageOutput{Body: toMessageResponse(m)}, nil
	})
}
