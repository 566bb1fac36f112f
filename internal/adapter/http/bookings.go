package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// BookingResponse is the API representation of a booking.
type BookingResponse struct {
	ID                 string    `json:"id" doc:"Unique identifier"`
	ListingID          string    `json:"listing_id"`
	TenantID           string    `json:"tenant_id"`
	OwnerID            string    `json:"owner_id"`
	StartDate          string    `json:"start_date" doc:"First night (YYYY-MM-DD)"`
	EndDate            string    `json:"end_date" doc:"Departure day (YYYY-MM-DD)"`
	Nights             int       `json:"nights"`
	Occupants          int       `json:"occupants"`
	TotalPrice         MoneyBody `json:"total_price"`
	Deposit            MoneyBody `json:"deposit"`
	Message            string    `json:"message,omitempty"`
	Status             string    `json:"status" doc:"Lifecycle state"`
	RejectionReason    string    `json:"rejection_reason,omitempty"`
	CancelledBy        string    `json:"cancelled_by,omitempty"`
	CancellationReason string    `json:"cancellation_reason,omitempty"`
	Version            int64     `json:"version"`
	CreatedAt          string    `json:"created_at"`
	UpdatedAt          string    `json:"updated_at"`
}

func toBookingResponse(b domain.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		ListingID:          b.ListingID,
		TenantID:           b.TenantID,
		OwnerID:            b.OwnerID,
		StartDate:          b.Period.Start.Format(time.DateOnly),
		EndDate:            b.Period.End.Format(time.DateOnly),
		Nights:             b.Period.Nights(),
		Occupants:          b.Occupants,
		TotalPrice:         toMoneyBody(b.TotalPrice),
		Deposit:            toMoneyBody(b.Deposit),
		Message:            b.Message,
		Status:             string(b.Status),
		RejectionReason:    b.RejectionReason,
		CancelledBy:        b.CancelledBy,
		CancellationReason: b.CancellationReason,
		Version:            b.Version,
		CreatedAt:          formatTime(b.CreatedAt),
		UpdatedAt:          formatTime(b.UpdatedAt),
	}
}

type BookingOutput struct {
	Body BookingResponse
}

type CreateBookingInput struct {
	Body struct {
		ListingID string `json:"listing_id" minLength:"1"`
		StartDate string `json:"start_date" format:"date" doc:"First night (YYYY-MM-DD)"`
		EndDate   string `json:"end_date" format:"date" doc:"Departure day (YYYY-MM-DD)"`
		Occupants int    `json:"occupants" minimum:"1"`
		Message   string `json:"message,omitempty" maxLength:"1000"`
	}
}

type ListBookingsInput struct {
	PageInput
	As        string `query:"as" required:"false" enum:"tenant,owner" doc:"Side of the bookings to list; defaults from the caller's role"`
	ListingID string `query:"listing_id" required:"false"`
	Status    string `query:"status" required:"false" enum:"pending,accepted,rejected,cancelled,completed"`
	TenantID  string `query:"tenant_id" required:"false" doc:"Administrators only"`
	OwnerID   string `query:"owner_id" required:"false" doc:"Administrators only"`
}

type ListBookingsOutput struct {
	Body []BookingResponse
}

func (h *handler) registerBookings(api huma.API) {
	svc := h.svc.Bookings

	huma.Register(api, huma.Operation{
		OperationID: "create-booking",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookings",
		Summary:     "Request a booking",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *CreateBookingInput) (*BookingOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		start, err := time.Parse(time.DateOnly, input.Body.StartDate)
		if err != nil {
			return nil, huma.Error400BadRequest("start_date must be YYYY-MM-DD")
		}
		end, err := time.Parse(time.DateOnly, input.Body.EndDate)
		if err != nil {
			return nil, huma.Error400BadRequest("end_date must be YYYY-MM-DD")
		}
		period, err := domain.NewPeriod(start, end)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		b, err := svc.Create(ctx, actor, domain.BookingRequest{
			ListingID: input.Body.ListingID,
			Period:    period,
			Occupants: input.Body.Occupants,
			Message:   input.Body.Message,
		})
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &BookingOutput{Body: toBookingResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-booking",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookings/{id}",
		Summary:     "Get a booking",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *IDInput) (*BookingOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		b, err := svc.Get(ctx, actor, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &BookingOutput{Body: toBookingResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-bookings",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookings",
		Summary:     "List the caller's bookings",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *ListBookingsInput) (*ListBookingsOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		filter := domain.BookingFilter{
			ListingID: input.ListingID,
			Limit:     input.Limit,
			Offset:    input.Offset,
		}
		if input.Status != "" {
			s := domain.BookingStatus(input.Status)
			filter.Status = &s
		}
		switch {
		case actor.IsAdmin():
			filter.TenantID, filter.OwnerID = input.TenantID, input.OwnerID
		case input.As == "owner" || (input.As == "" && actor.Role == domain.RoleOwner):
			filter.OwnerID = actor.ID
		default:
			filter.TenantID = actor.ID
		}

		bookings, err := svc.List(ctx, filter)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		resp := make([]BookingResponse, len(bookings))
		for i, b := range bookings {
			resp[i] = toBookingResponse(b)
		}
		return &ListBookingsOutput{Body: resp}, nil
	})

	h.bookingAction(api, "accept-booking", "/accept", "Accept a pending booking",
		func(ctx context.Context, actor domain.Actor, input *ReasonInput) (domain.Booking, error) {
			return svc.Accept(ctx, actor, input.ID)
		})
	h.bookingAction(api, "reject-booking", "/reject", "Reject a pending booking",
		func(ctx context.Context, actor domain.Actor, input *ReasonInput) (domain.Booking, error) {
			return svc.Reject(ctx, actor, input.ID, input.reason())
		})
	h.bookingAction(api, "cancel-booking", "/cancel", "Cancel a pending or accepted booking",
		func(ctx context.Context, actor domain.Actor, input *ReasonInput) (domain.Booking, error) {
			return svc.Cancel(ctx, actor, input.ID, input.reason())
		})
	h.bookingAction(api, "complete-booking", "/complete", "Mark an accepted booking as completed",
		func(ctx context.Context, actor domain.Actor, input *ReasonInput) (domain.Booking, error) {
			return svc.Complete(ctx, actor, input.ID)
		})
}

// bookingAction registers a booking transition. The reason body is optional
// and ignored by transitions that take none.
func (h *handler) bookingAction(
	api huma.API,
	operationID, suffix, summary string,
	action func(context.Context, domain.Actor, *ReasonInput) (domain.Booking, error),
) {
	huma.Register(api, huma.Operation{
		OperationID: operationID,
		Method:      http.MethodPost,
		Path:        "/api/v1/bookings/{id}" + suffix,
		Summary:     summary,
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *ReasonInput) (*BookingOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		b, err := action(ctx, actor, input)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &BookingOutput{Body: toBookingResponse(b)}, nil
	})
}
