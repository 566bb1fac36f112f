package http

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/rentwise/internal/domain"
)

const maxPhotoBytes = 10 << 20

// AddressBody is the wire form of a listing address.
type AddressBody struct {
	Street     string `json:"street,omitempty" maxLength:"255"`
	District   string `json:"district,omitempty" maxLength:"100"`
	City       string `json:"city" minLength:"1" maxLength:"100"`
	Region     string `json:"region,omitempty" maxLength:"100"`
	Country    string `json:"country" minLength:"2" maxLength:"2" doc:"ISO 3166-1 alpha-2 code"`
	PostalCode string `json:"postal_code,omitempty" maxLength:"20"`
}

// ListingDetailsBody is the owner-editable part of a listing.
type ListingDetailsBody struct {
	Category    string      `json:"category" enum:"apartment,house,room,land,vehicle" doc:"Kind of rentable unit"`
	Title       string      `json:"title" minLength:"3" maxLength:"200"`
	Description string      `json:"description,omitempty" maxLength:"5000"`
	Price       MoneyBody   `json:"price" doc:"Price per night"`
	Deposit     *MoneyBody  `json:"deposit,omitempty" doc:"Security deposit, zero when omitted"`
	Address     AddressBody `json:"address"`
	Capacity    int         `json:"capacity,omitempty" minimum:"0"`
	Rooms       int         `json:"rooms,omitempty" minimum:"0"`
	SurfaceM2   int         `json:"surface_m2,omitempty" minimum:"0"`
}

func (b ListingDetailsBody) details() (domain.ListingDetails, error) {
	price, err := b.Price.money()
	if err != nil {
		return domain.ListingDetails{}, err
	}
	var deposit domain.Money
	if b.Deposit != nil {
		if deposit, err = b.Deposit.money(); err != nil {
			return domain.ListingDetails{}, err
		}
	}
	a := b.Address
	addr, err := domain.NewAddress(a.Street, a.District, a.City, a.Region, a.Country, a.PostalCode)
	if err != nil {
		return domain.ListingDetails{}, err
	}
	return domain.ListingDetails{
		Category:    domain.Category(b.Category),
		Title:       b.Title,
		Description: b.Description,
		Price:       price,
		Deposit:     deposit,
		Address:     addr,
		Capacity:    b.Capacity,
		Rooms:       b.Rooms,
		SurfaceM2:   b.SurfaceM2,
	}, nil
}

// PhotoBody is one stored listing photo.
type PhotoBody struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ListingResponse is the API representation of a listing.
type ListingResponse struct {
	ID              string      `json:"id" doc:"Unique identifier"`
	OwnerID         string      `json:"owner_id"`
	Category        string      `json:"category"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Price           MoneyBody   `json:"price"`
	Deposit         MoneyBody   `json:"deposit"`
	Address         AddressBody `json:"address"`
	Capacity        int         `json:"capacity"`
	Rooms           int         `json:"rooms"`
	SurfaceM2       int         `json:"surface_m2"`
	Photos          []PhotoBody `json:"photos"`
	Moderation      string      `json:"moderation" doc:"Moderation state"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	Available       bool        `json:"available"`
	ViewCount       int64       `json:"view_count"`
	Version         int64       `json:"version"`
	CreatedAt       string      `json:"created_at" doc:"Creation timestamp (RFC 3339)"`
	UpdatedAt       string      `json:"updated_at" doc:"Last update timestamp (RFC 3339)"`
}

func toListingResponse(l domain.Listing) ListingResponse {
	photos := make([]PhotoBody, len(l.Photos))
	for i, p := range l.Photos {
		photos[i] = PhotoBody{Key: p.Key, URL: p.URL}
	}
	return ListingResponse{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		Category:    string(l.Category),
		Title:       l.Title,
		Description: l.Description,
		Price:       toMoneyBody(l.Price),
		Deposit:     toMoneyBody(l.Deposit),
		Address: AddressBody{
			Street:     l.Address.Street,
			District:   l.Address.District,
			City:       l.Address.City,
			Region:     l.Address.Region,
			Country:    l.Address.Country,
			PostalCode: l.Address.PostalCode,
		},
		Capacity:        l.Capacity,
		Rooms:           l.Rooms,
		SurfaceM2:       l.SurfaceM2,
		Photos:          photos,
		Moderation:      string(l.Moderation),
		RejectionReason: l.RejectionReason,
		Available:       l.Available,
		ViewCount:       l.ViewCount,
		Version:         l.Version,
		CreatedAt:       formatTime(l.CreatedAt),
		UpdatedAt:       formatTime(l.UpdatedAt),
	}
}

type ListingOutput struct {
	Body ListingResponse
}

type CreateListingInput struct {
	Body ListingDetailsBody
}

type UpdateListingInput struct {
	ID   string `path:"id" doc:"Listing ID"`
	Body ListingDetailsBody
}

type ListListingsInput struct {
	PageInput
	OwnerID    string `query:"owner_id" required:"false" doc:"Filter by owner"`
	Category   string `query:"category" required:"false" enum:"apartment,house,room,land,vehicle" doc:"Filter by category"`
	City       string `query:"city" required:"false" doc:"Filter by city, case-insensitive"`
	Moderation string `query:"moderation" required:"false" enum:"pending_moderation,approved,rejected" doc:"Filter by moderation state"`
}

type ListListingsOutput struct {
	Body []ListingResponse
}

type AddPhotoInput struct {
	ID          string `path:"id" doc:"Listing ID"`
	ContentType string `header:"Content-Type" doc:"Image media type"`
	RawBody     []byte
}

type RemovePhotoInput struct {
	ID  string `path:"id" doc:"Listing ID"`
	Key string `query:"key" doc:"Photo key"`
}

func (h *handler) registerListings(api huma.API) {
	svc := h.svc.Listings

	huma.Register(api, huma.Operation{
		OperationID: "create-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings",
		Summary:     "Create a listing awaiting moderation",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *CreateListingInput) (*ListingOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		d, err := input.Body.details()
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		l, err := svc.Create(ctx, actor, d)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &ListingOutput{Body: toListingResponse(l)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Get a listing; public reads count as views",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *IDInput) (*ListingOutput, error) {
		l, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		actor, ok := ActorFrom(ctx)
		if ok && (actor.ID == l.OwnerID || actor.IsAdmin()) {
			return &ListingOutput{Body: toListingResponse(l)}, nil
		}
		if !l.Bookable() {
			return nil, huma.Error404NotFound((&domain.NotFoundError{Entity: "listing", ID: input.ID}).Error())
		}
		if l, err = svc.View(ctx, input.ID); err != nil {
			return nil, h.fail(ctx, err)
		}
		return &ListingOutput{Body: toListingResponse(l)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "Search listings",
		Description: "Anonymous callers and non-owners only see approved, available listings.",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *ListListingsInput) (*ListListingsOutput, error) {
		filter := domain.ListingFilter{
			OwnerID: input.OwnerID,
			City:    strings.TrimSpace(input.City),
			Limit:   input.Limit,
			Offset:  input.Offset,
		}
		if input.Category != "" {
			c := domain.Category(input.Category)
			filter.Category = &c
		}
		if input.Moderation != "" {
			m := domain.ModerationStatus(input.Moderation)
			filter.Moderation = &m
		}
		actor, ok := ActorFrom(ctx)
		if !ok || (!actor.IsAdmin() && actor.ID != input.OwnerID) {
			approved := domain.ModerationApproved
			filter.Moderation = &approved
			filter.AvailableOnly = true
		}

		listings, err := svc.List(ctx, filter)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		resp := make([]ListingResponse, len(listings))
		for i, l := range listings {
			resp[i] = toListingResponse(l)
		}
		return &ListListingsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-listing",
		Method:      http.MethodPut,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Replace the owner-editable details of a listing",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *UpdateListingInput) (*ListingOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		d, err := input.Body.details()
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		l, err := svc.UpdateDetails(ctx, actor, input.ID, d)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &ListingOutput{Body: toListingResponse(l)}, nil
	})

	h.listingAction(api, "approve-listing", "/approve", "Approve a listing", svc.Approve)
	h.listingAction(api, "publish-listing", "/publish", "Make an approved listing available", svc.Publish)
	h.listingAction(api, "unpublish-listing", "/unpublish", "Withdraw a listing from search", svc.Unpublish)

	huma.Register(api, huma.Operation{
		OperationID: "reject-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{id}/reject",
		Summary:     "Reject a listing",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *ReasonInput) (*ListingOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		l, err := svc.Reject(ctx, actor, input.ID, input.reason())
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &ListingOutput{Body: toListingResponse(l)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:  "add-listing-photo",
		Method:       http.MethodPost,
		Path:         "/api/v1/listings/{id}/photos",
		Summary:      "Upload a listing photo",
		Tags:         []string{"Listings"},
		MaxBodyBytes: maxPhotoBytes,
	}, func(ctx context.Context, input *AddPhotoInput) (*ListingOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(input.ContentType, "image/") {
			return nil, huma.Error415UnsupportedMediaType("photos must be uploaded with an image/* content type")
		}
		if len(input.RawBody) == 0 {
			return nil, huma.Error400BadRequest("photo body is empty")
		}
		l, err := svc.AddPhoto(ctx, actor, input.ID, input.ContentType, bytes.NewReader(input.RawBody))
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &ListingOutput{Body: toListingResponse(l)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-listing-photo",
		Method:      http.MethodDelete,
		Path:        "/api/v1/listings/{id}/photos",
		Summary:     "Remove a listing photo",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *RemovePhotoInput) (*ListingOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		l, err := svc.RemovePhoto(ctx, actor, input.ID, input.Key)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &ListingOutput{Body: toListingResponse(l)}, nil
	})
}

// listingAction registers a body-less transition on a listing.
func (h *handler) listingAction(
	api huma.API,
	operationID, suffix, summary string,
	action func(context.Context, domain.Actor, string) (domain.Listing, error),
) {
	huma.Register(api, huma.Operation{
		OperationID: operationID,
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{id}" + suffix,
		Summary:     summary,
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *IDInput) (*ListingOutput, error) {
		actor, err := requireActor(ctx)
		if err != nil {
			return nil, err
		}
		l, err := action(ctx, actor, input.ID)
		if err != nil {
			return nil, h.fail(ctx, err)
		}
		return &ListingOutput{Body: toListingResponse(l)}, nil
	})
}
