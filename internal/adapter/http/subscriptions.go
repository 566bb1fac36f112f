package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// SubscriptionResponse is the API representation of a mutual-aid membership.
type SubscriptionResponse struct {
	ID               string `json:"id" doc:"Unique identifier"`
	MemberID         string `json:"member_id"`
	MembershipNumber string `json:"membership_number" doc:"Human-readable number, e.g. MUT-202506-7KQ2XD"`
	Status           string `json:"status" doc:"Lifecycle state"`
	JoinedAt         string `json:"joined_at"`
	TerminatedAt     string `json:"terminated_at,omitempty"`
	Version          int64  `json:"version"`
}

func toSubscriptionResponse(s domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:               s.ID,
		MemberID:         s.MemberID,
		MembershipNumber: s.MembershipNumber,
		Status:           string(s.Status),
		JoinedAt:         formatTime(s.JoinedAt),
		TerminatedAt:     formatTimePtr(s.TerminatedAt),
		Version:          s.Version,
	}
}

// ContributionResponse is the API representation of a monthly contribution.
type ContributionResponse struct {
	ID             string    `json:"id" doc:"Unique identifier"`
	SubscriptionID string    `json:"subscription_id"`
	Amount         MoneyBody `json:"amount"`
	Month          int       `json:"month"`
	Year           int       `json:"year"`
	PaymentRef     string    `json:"payment_ref,omitempty"`
	Status         string    `json:"status" doc:"Lifecycle state"`
	PaidAt         string    `json:"paid_at,omitempty"`
	Version        int64     `json:"version"`
}

func toContributionResponse(c domain.Contribution) ContributionResponse {
	return ContributionResponse{
		ID:             c.ID,
		SubscriptionID: c.SubscriptionID,
		Amount:         toMoneyBody(c.Amount),
		Month:          c.Period.Month,
		Year:           c.Period.Year,
		PaymentRef:     c.PaymentRef,
		Status:         string(c.Status),
		PaidAt:         formatTimePtr(c.PaidAt),
		Version:        c.Version,
	}
}

type SubscriptionOutput struct {
	Body SubscriptionResponse
}

type ContributionOutput struct {
	Body ContributionResponse
}

type ListContributionsOutput struct {
	Body []ContributionResponse
}

type PayContributionInput struct {
	Body struct {
		Month          int    `json:"month" minimum:"1" maximum:"12"`
		Year           int    `json:"year" minimum:"2000" maximum:"9999"`
		TransactionRef string `json:"transaction_ref" minLength:"1" maxLength:"255" doc:"Reference of the payment that settled the period"`
	}
}

func (h *handler) registerSubscriptions(api huma.API) {
	svc := h.svc.Subscriptions

	huma.Register(api, huma.Operation{
		OperationID: "join-mutual-aid",
		Method:      http.MethodPost,
		Path:        "/api/v1/subscriptions",
		Summary:     "Join the student mutual-aid fund",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, _ *struct{}) (*SubscriptionOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		s, err := svc.Join(ctx, actor)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &SubscriptionOutput{Body: toSubscriptionResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-my-subscription",
		Method:      http.MethodGet,
		Path:        "/api/v1/subscriptions/me",
		Summary:     "Get the caller's active membership",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, _ *struct{}) (*SubscriptionOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		s, err := svc.Active(ctx, actor)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &SubscriptionOutput{Body: toSubscriptionResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-subscription",
		Method:      http.MethodGet,
		Path:        "/api/v1/subscriptions/{id}",
		Summary:     "Get a membership",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *IDInput) (*SubscriptionOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		s, err := svc.Get(ctx, actor, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &SubscriptionOutput{Body: toSubscriptionResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "terminate-subscription",
		Method:      http.MethodPost,
		Path:        "/api/v1/subscriptions/{id}/terminate",
		Summary:     "Terminate a membership",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *IDInput) (*SubscriptionOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		s, err := svc.Terminate(ctx, actor, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &SubscriptionOutput{Body: toSubscriptionResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-contributions",
		Method:      http.MethodGet,
		Path:        "/api/v1/subscriptions/{id}/contributions",
		Summary:     "List the contributions of a membership",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *IDInput) (*ListContributionsOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		contributions, err := svc.Contributions(ctx, actor, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		resp := make([]ContributionResponse, len(contributions))
		for i, c := range contributions {
			resp[i] = toContributionResponse(c)
		}
		return &ListContributionsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pay-contribution",
		Method:      http.MethodPost,
		Path:        "/api/v1/subscriptions/me/contributions",
		Summary:     "Record the caller's contribution for a month",
		Tags:        []string{"Subscriptions"},
	}, func(ctx context.Context, input *PayContributionInput) (*ContributionOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		c, err := svc.PayForPeriod(ctx, actor, input.Body.Month, input.Body.Year, input.Body.TransactionRef)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &ContributionOutput{Body: toContributionResponse(c)}, nil
	})
}
