package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// ReviewResponse is the API representation of a review.
type ReviewResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	BookingID string `json:"booking_id"`
	ListingID string `json:"listing_id"`
	TenantID  string `json:"tenant_id"`
	Rating    int    `json:"rating" doc:"1 to 5 stars"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toReviewResponse(r domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		BookingID: r.BookingID,
		ListingID: r.ListingID,
		TenantID:  r.TenantID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: formatTime(r.CreatedAt),
		UpdatedAt: formatTime(r.UpdatedAt),
	}
}

type ReviewOutput struct {
	Body ReviewResponse
}

type ListReviewsOutput struct {
	Body []ReviewResponse
}

type CreateReviewInput struct {
	ID   string `path:"id" doc:"Booking ID"`
	Body struct {
		Rating  int    `json:"rating" minimum:"1" maximum:"5"`
		Comment string `json:"comment" minLength:"10" maxLength:"1000"`
	}
}

type UpdateReviewInput struct {
	ID   string `path:"id" doc:"Review ID"`
	Body struct {
		Rating  *int    `json:"rating,omitempty" minimum:"1" maximum:"5"`
		Comment *string `json:"comment,omitempty" maxLength:"1000"`
	}
}

func (h *handler) registerReviews(api huma.API) {
	svc := h.svc.Reviews

	huma.Register(api, huma.Operation{
		OperationID: "create-review",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookings/{id}/review",
		Summary:     "Review a completed stay",
		Tags:        []string{"Reviews"},
	}, func(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		r, err := svc.Create(ctx, actor, input.ID, input.Body.Rating, input.Body.Comment)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &ReviewOutput{Body: toReviewResponse(r)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-review",
		Method:      http.MethodGet,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Get a review",
		Tags:        []string{"Reviews"},
	}, func(ctx context.Context, input *IDInput) (*ReviewOutput, error) {
		r, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &ReviewOutput{Body: toReviewResponse(r)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-listing-reviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}/reviews",
		Summary:     "List the reviews of a listing",
		Tags:        []string{"Reviews"},
	}, func(ctx context.Context, input *IDInput) (*ListReviewsOutput, error) {
		reviews, err := svc.ListByListing(ctx, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		resp := make([]ReviewResponse, len(reviews))
		for i, r := range reviews {
			resp[i] = toReviewResponse(r)
		}
		return &ListReviewsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-review",
		Method:      http.MethodPatch,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Change the rating or comment of a review",
		Tags:        []string{"Reviews"},
	}, func(ctx context.Context, input *UpdateReviewInput) (*ReviewOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		r, err := svc.Update(ctx, actor, input.ID, domain.ReviewUpdate{
			Rating:  input.Body.Rating,
			Comment: input.Body.Comment,
		})
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &ReviewOutput{Body: toReviewResponse(r)}, nil
	})
}
