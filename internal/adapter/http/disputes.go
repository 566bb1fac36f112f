package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// CommentBody is one entry of a dispute thread.
type CommentBody struct {
	AuthorID  string `json:"author_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// DisputeResponse is the API representation of a dispute.
type DisputeResponse struct {
	ID          string        `json:"id" doc:"Unique identifier"`
	BookingID   string        `json:"booking_id,omitempty"`
	TenantID    string        `json:"tenant_id"`
	OwnerID     string        `json:"owner_id"`
	OpenedBy    string        `json:"opened_by"`
	Category    string        `json:"category"`
	Description string        `json:"description"`
	Status      string        `json:"status" doc:"Lifecycle state"`
	Resolution  string        `json:"resolution,omitempty"`
	Comments    []CommentBody `json:"comments"`
	ResolvedAt  string        `json:"resolved_at,omitempty"`
	Version     int64         `json:"version"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
}

func toDisputeResponse(d domain.Dispute) DisputeResponse {
	comments := make([]CommentBody, len(d.Comments))
	for i, c := range d.Comments {
		comments[i] = CommentBody{AuthorID: c.AuthorID, Text: c.Text, CreatedAt: formatTime(c.CreatedAt)}
	}
	return DisputeResponse{
		ID:          d.ID,
		BookingID:   d.BookingID,
		TenantID:    d.TenantID,
		OwnerID:     d.OwnerID,
		OpenedBy:    d.OpenedBy,
		Category:    string(d.Category),
		Description: d.Description,
		Status:      string(d.Status),
		Resolution:  d.Resolution,
		Comments:    comments,
		ResolvedAt:  formatTimePtr(d.ResolvedAt),
		Version:     d.Version,
		CreatedAt:   formatTime(d.CreatedAt),
		UpdatedAt:   formatTime(d.UpdatedAt),
	}
}

type DisputeOutput struct {
	Body DisputeResponse
}

type OpenDisputeInput struct {
	Body struct {
		BookingID   string `json:"booking_id,omitempty" doc:"Booking in dispute; parties are taken from it"`
		OwnerID     string `json:"owner_id,omitempty" doc:"Required when no booking is given"`
		Category    string `json:"category" enum:"booking,payment,listing,other"`
		Description string `json:"description" minLength:"10" maxLength:"5000"`
	}
}

type ListDisputesInput struct {
	PageInput
	BookingID string `query:"booking_id" required:"false"`
	Status    string `query:"status" required:"false" enum:"open,in_progress,resolved,closed"`
	PartyID   string `query:"party_id" required:"false" doc:"Administrators only"`
}

type ListDisputesOutput struct {
	Body []DisputeResponse
}

type CommentDisputeInput struct {
	ID   string `path:"id" doc:"Dispute ID"`
	Body struct {
		Text string `json:"text" minLength:"1" maxLength:"2000"`
	}
}

type ResolveDisputeInput struct {
	ID   string `path:"id" doc:"Dispute ID"`
	Body struct {
		Resolution string `json:"resolution" minLength:"1" maxLength:"5000"`
	}
}

func (h *handler) registerDisputes(api huma.API) {
	svc := h.svc.Disputes

	huma.Register(api, huma.Operation{
		OperationID: "open-dispute",
		Method:      http.MethodPost,
		Path:        "/api/v1/disputes",
		Summary:     "Open a dispute",
		Tags:        []string{"Disputes"},
	}, func(ctx context.Context, input *OpenDisputeInput) (*DisputeOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		d, err := svc.Open(ctx, actor, domain.DisputeRequest{
			BookingID:   input.Body.BookingID,
			OwnerID:     input.Body.OwnerID,
			Category:    domain.DisputeCategory(input.Body.Category),
			Description: input.Body.Description,
		})
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &DisputeOutput{Body: toDisputeResponse(d)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-dispute",
		Method:      http.MethodGet,
		Path:        "/api/v1/disputes/{id}",
		Summary:     "Get a dispute",
		Tags:        []string{"Disputes"},
	}, func(ctx context.Context, input *IDInput) (*DisputeOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		d, err := svc.Get(ctx, actor, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &DisputeOutput{Body: toDisputeResponse(d)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-disputes",
		Method:      http.MethodGet,
		Path:        "/api/v1/disputes",
		Summary:     "List disputes the caller is party to",
		Tags:        []string{"Disputes"},
	}, func(ctx context.Context, input *ListDisputesInput) (*ListDisputesOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		filter := domain.DisputeFilter{
			PartyID:   actor.ID,
			BookingID: input.BookingID,
			Limit:     input.Limit,
			Offset:    input.Offset,
		}
		if actor.IsAdmin() {
			filter.PartyID = input.PartyID
		}
		if input.Status != "" {
			s := domain.DisputeStatus(input.Status)
			filter.Status = &s
		}

		disputes, err := svc.List(ctx, filter)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		resp := make([]DisputeResponse, len(disputes))
		for i, d := range disputes {
			resp[i] = toDisputeResponse(d)
		}
		return &ListDisputesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "comment-dispute",
		Method:      http.MethodPost,
		Path:        "/api/v1/disputes/{id}/comments",
		Summary:     "Add a comment to a dispute",
		Tags:        []string{"Disputes"},
	}, func(ctx context.Context, input *CommentDisputeInput) (*DisputeOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		d, err := svc.AddComment(ctx, actor, input.ID, input.Body.Text)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &DisputeOutput{Body: toDisputeResponse(d)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resolve-dispute",
		Method:      http.MethodPost,
		Path:        "/api/v1/disputes/{id}/resolve",
		Summary:     "Resolve a dispute",
		Tags:        []string{"Disputes"},
	}, func(ctx context.Context, input *ResolveDisputeInput) (*DisputeOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		d, err := svc.Resolve(ctx, actor, input.ID, input.Body.Resolution)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &DisputeOutput{Body: toDisputeResponse(d)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-dispute",
		Method:      http.MethodPost,
		Path:        "/api/v1/disputes/{id}/close",
		Summary:     "Close a dispute without resolution",
		Tags:        []string{"Disputes"},
	}, func(ctx context.Context, input *IDInput) (*DisputeOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		d, err := svc.Close(ctx, actor, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &DisputeOutput{Body: toDisputeResponse(d)}, nil
	})
}
