package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// PaymentResponse is the API representation of a payment.
type PaymentResponse struct {
	ID             string     `json:"id" doc:"Unique identifier"`
	BookingID      string     `json:"booking_id"`
	TenantID       string     `json:"tenant_id"`
	OwnerID        string     `json:"owner_id"`
	Purpose        string     `json:"purpose"`
	Amount         MoneyBody  `json:"amount"`
	Method         string     `json:"method"`
	TransactionRef string     `json:"transaction_ref,omitempty" doc:"Reference assigned by the provider"`
	Status         string     `json:"status" doc:"Lifecycle state"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	RefundedAmount *MoneyBody `json:"refunded_amount,omitempty"`
	ValidatedAt    string     `json:"validated_at,omitempty"`
	RefundedAt     string     `json:"refunded_at,omitempty"`
	Version        int64      `json:"version"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
}

func toPaymentResponse(p domain.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:             p.ID,
		BookingID:      p.BookingID,
		TenantID:       p.TenantID,
		OwnerID:        p.OwnerID,
		Purpose:        string(p.Purpose),
		Amount:         toMoneyBody(p.Amount),
		Method:         string(p.Method),
		TransactionRef: p.TransactionRef,
		Status:         string(p.Status),
		FailureReason:  p.FailureReason,
		ValidatedAt:    formatTimePtr(p.ValidatedAt),
		RefundedAt:     formatTimePtr(p.RefundedAt),
		Version:        p.Version,
		CreatedAt:      formatTime(p.CreatedAt),
		UpdatedAt:      formatTime(p.UpdatedAt),
	}
	if p.RefundedAmount.Currency() != "" {
		refunded := toMoneyBody(p.RefundedAmount)
		resp.RefundedAmount = &refunded
	}
	return resp
}

type PaymentOutput struct {
	Body PaymentResponse
}

type CreatePaymentInput struct {
	Body struct {
		BookingID string    `json:"booking_id" minLength:"1"`
		Purpose   string    `json:"purpose" enum:"rent,deposit"`
		Amount    MoneyBody `json:"amount"`
		Method    string    `json:"method" enum:"orange_money,mtn_momo,card,cash"`
	}
}

type RefundBody struct {
	Amount *MoneyBody `json:"amount,omitempty" doc:"Partial refund; the full amount when omitted"`
}

type RefundPaymentInput struct {
	ID   string      `path:"id" doc:"Payment ID"`
	Body *RefundBody `required:"false"`
}

type ListPaymentsOutput struct {
	Body []PaymentResponse
}

func (h *handler) registerPayments(api huma.API) {
	svc := h.svc.Payments

	huma.Register(api, huma.Operation{
		OperationID: "create-payment",
		Method:      http.MethodPost,
		Path:        "/api/v1/payments",
		Summary:     "Pay for an accepted booking",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *CreatePaymentInput) (*PaymentOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		amount, err := input.Body.Amount.money()
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		p, err := svc.Create(ctx, actor, domain.PaymentRequest{
			BookingID: input.Body.BookingID,
			Purpose:   domain.PaymentPurpose(input.Body.Purpose),
			Amount:    amount,
			Method:    domain.PaymentMethod(input.Body.Method),
		})
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &PaymentOutput{Body: toPaymentResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-payment",
		Method:      http.MethodGet,
		Path:        "/api/v1/payments/{id}",
		Summary:     "Get a payment",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *IDInput) (*PaymentOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		p, err := svc.Get(ctx, actor, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &PaymentOutput{Body: toPaymentResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-booking-payments",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookings/{id}/payments",
		Summary:     "List the payments of a booking",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *IDInput) (*ListPaymentsOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		payments, err := svc.ListByBooking(ctx, actor, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		resp := make([]PaymentResponse, len(payments))
		for i, p := range payments {
			resp[i] = toPaymentResponse(p)
		}
		return &ListPaymentsOutput{Body: resp}, nil
	})

	h.paymentAction(api, "confirm-payment", "/confirm", "Check the provider and validate or fail the payment",
		func(ctx context.Context, actor domain.Actor, input *ReasonInput) (domain.Payment, error) {
			return svc.Confirm(ctx, actor, input.ID)
		})
	h.paymentAction(api, "validate-payment", "/validate", "Validate a payment checked out of band",
		func(ctx context.Context, actor domain.Actor, input *ReasonInput) (domain.Payment, error) {
			return svc.Validate(ctx, actor, input.ID)
		})
	h.paymentAction(api, "fail-payment", "/fail", "Mark a pending payment as failed",
		func(ctx context.Context, actor domain.Actor, input *ReasonInput) (domain.Payment, error) {
			return svc.Fail(ctx, actor, input.ID, input.reason())
		})

	huma.Register(api, huma.Operation{
		OperationID: "refund-payment",
		Method:      http.MethodPost,
		Path:        "/api/v1/payments/{id}/refund",
		Summary:     "Refund a validated payment",
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *RefundPaymentInput) (*PaymentOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		var amount *domain.Money
		if input.Body != nil && input.Body.Amount != nil {
			m, err := input.Body.Amount.money()
			if err != nil {
				return nil, h.fail(ctx, err)
			}
			amount = &m
		}
		p, err := svc.Refund(ctx, actor, input.ID, amount)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &PaymentOutput{Body: toPaymentResponse(p)}, nil
	})
}

func (h *handler) paymentAction(
	api huma.API,
	operationID, suffix, summary string,
	action func(context.Context, domain.Actor, *ReasonInput) (domain.Payment, error),
) {
	huma.Register(api, huma.Operation{
		OperationID: operationID,
		Method:      http.MethodPost,
		Path:        "/api/v1/payments/{id}" + suffix,
		Summary:     summary,
		Tags:        []string{"Payments"},
	}, func(ctx context.Context, input *ReasonInput) (*PaymentOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		p, err := action(ctx, actor, input)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &PaymentOutput{Body: toPaymentResponse(p)}, nil
	})
}
