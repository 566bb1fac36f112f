package domain

import (
	"strings"
	"time"
)

// ModerationStatus is the administrator-controlled approval state of a listing.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending_moderation"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// ListingEvent triggers a moderation transition.
type ListingEvent string

const (
	ListingEventApprove ListingEvent = "approve"
	ListingEventReject  ListingEvent = "reject"
)

// Owner-side availability changes are not moderation transitions; they are
// published as lifecycle events under these names.
const (
	ListingEventPublish   = "publish"
	ListingEventUnpublish = "unpublish"
)

// ListingMachine is the moderation lifecycle. Re-approval of a rejected
// listing and rejection of an approved one are both allowed.
var ListingMachine = Machine[ModerationStatus, ListingEvent]{
	Entity: "listing",
	Transitions: []Transition[ModerationStatus, ListingEvent]{
		{Event: ListingEventApprove, Src: ModerationPending, Dst: ModerationApproved},
		{Event: ListingEventApprove, Src: ModerationRejected, Dst: ModerationApproved},
		{Event: ListingEventReject, Src: ModerationPending, Dst: ModerationRejected},
		{Event: ListingEventReject, Src: ModerationApproved, Dst: ModerationRejected},
	},
	Preconditions: map[ListingEvent]string{
		ListingEventApprove: "listing is already approved",
		ListingEventReject:  "listing is already rejected",
	},
}

// Category is the kind of rentable unit.
type Category string

const (
	CategoryApartment Category = "apartment"
	CategoryHouse     Category = "house"
	CategoryRoom      Category = "room"
	CategoryLand      Category = "land"
	CategoryVehicle   Category = "vehicle"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryApartment, CategoryHouse, CategoryRoom, CategoryLand, CategoryVehicle:
		return true
	}
	return false
}

// Photo is one stored picture of a listing.
type Photo struct {
	Key string
	URL string
}

// Listing is a rentable unit published by an owner.
type Listing struct {
	ID              string
	OwnerID         string
	Category        Category
	Title           string
	Description     string
	Price           Money // per night
	Deposit         Money
	Address         Address
	Capacity        int
	Rooms           int
	SurfaceM2       int
	Photos          []Photo
	Moderation      ModerationStatus
	RejectionReason string
	Available       bool
	ViewCount       int64
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ListingDetails is the owner-editable part of a listing.
type ListingDetails struct {
	Category    Category
	Title       string
	Description string
	Price       Money
	Deposit     Money
	Address     Address
	Capacity    int
	Rooms       int
	SurfaceM2   int
}

func (d ListingDetails) validate() error {
	if !d.Category.Valid() {
		return invalid("category", "unknown category %q", d.Category)
	}
	if n := len([]rune(strings.TrimSpace(d.Title))); n < 3 || n > 200 {
		return invalid("title", "must be between 3 and 200 characters")
	}
	if len([]rune(d.Description)) > 5000 {
		return invalid("description", "must be at most 5000 characters")
	}
	if d.Price.Currency() == "" || d.Price.IsZero() {
		return invalid("price", "must be positive")
	}
	if d.Deposit.Currency() != "" && d.Deposit.Currency() != d.Price.Currency() {
		return invalid("deposit", "currency %s differs from price currency %s", d.Deposit.Currency(), d.Price.Currency())
	}
	if d.Address.City == "" {
		return invalid("address", "is required")
	}
	if d.Capacity < 0 || d.Rooms < 0 || d.SurfaceM2 < 0 {
		return invalid("capacity", "size attributes must not be negative")
	}
	return nil
}

// NewListing creates a listing awaiting moderation and not yet available.
func NewListing(id, ownerID string, d ListingDetails, now time.Time) (Listing, error) {
	if err := d.validate(); err != nil {
		return Listing{}, err
	}
	if d.Deposit.Currency() == "" {
		d.Deposit = Money{currency: d.Price.Currency()}
	}
	l := Listing{
		ID:         id,
		OwnerID:    ownerID,
		Moderation: ModerationPending,
		CreatedAt:  now,
	}
	return l.WithDetails(d, now), nil
}

// WithDetails replaces the owner-editable attributes.
func (l Listing) WithDetails(d ListingDetails, now time.Time) Listing {
	l.Category = d.Category
	l.Title = strings.TrimSpace(d.Title)
	l.Description = d.Description
	l.Price = d.Price
	l.Deposit = d.Deposit
	l.Address = d.Address
	l.Capacity = d.Capacity
	l.Rooms = d.Rooms
	l.SurfaceM2 = d.SurfaceM2
	l.UpdatedAt = now
	return l
}

// UpdateDetails validates and applies new details on behalf of the owner.
func (l Listing) UpdateDetails(actor Actor, d ListingDetails, now time.Time) (Listing, error) {
	if err := l.AuthorizeOwner(actor, "edit this listing"); err != nil {
		return Listing{}, err
	}
	if err := d.validate(); err != nil {
		return Listing{}, err
	}
	if d.Deposit.Currency() == "" {
		d.Deposit = Money{currency: d.Price.Currency()}
	}
	return l.WithDetails(d, now), nil
}

// AuthorizeOwner fails unless actor owns the listing.
func (l Listing) AuthorizeOwner(actor Actor, action string) error {
	if actor.ID != l.OwnerID {
		return actor.forbid(action)
	}
	return nil
}

// AuthorizeModerator fails unless actor is an administrator.
func AuthorizeModerator(actor Actor) error {
	if !actor.IsAdmin() {
		return actor.forbid("moderate listings")
	}
	return nil
}

// Moderated applies a validated moderation transition. Approval makes the
// listing available; rejection withdraws it.
func (l Listing) Moderated(to ModerationStatus, reason string, now time.Time) Listing {
	l.Moderation = to
	switch to {
	case ModerationApproved:
		// Approval publishes only a listing that can be shown with a photo.
		l.Available = len(l.Photos) > 0
		l.RejectionReason = ""
	case ModerationRejected:
		l.Available = false
		l.RejectionReason = strings.TrimSpace(reason)
	}
	l.UpdatedAt = now
	return l
}

// Publish makes an approved listing with photos available for booking.
func (l Listing) Publish(actor Actor, now time.Time) (Listing, error) {
	if err := l.AuthorizeOwner(actor, "publish this listing"); err != nil {
		return Listing{}, err
	}
	if l.Moderation != ModerationApproved {
		return Listing{}, &TransitionError{Entity: "listing", Event: ListingEventPublish, Current: string(l.Moderation), Reason: "only approved listings can be published"}
	}
	if len(l.Photos) == 0 {
		return Listing{}, &TransitionError{Entity: "listing", Event: ListingEventPublish, Current: string(l.Moderation), Reason: "a listing needs at least one photo to be published"}
	}
	l.Available = true
	l.UpdatedAt = now
	return l, nil
}

// Unpublish withdraws the listing from booking. It is always allowed to the owner.
func (l Listing) Unpublish(actor Actor, now time.Time) (Listing, error) {
	if err := l.AuthorizeOwner(actor, "unpublish this listing"); err != nil {
		return Listing{}, err
	}
	l.Available = false
	l.UpdatedAt = now
	return l, nil
}

// WithPhoto appends a stored photo.
func (l Listing) WithPhoto(p Photo, now time.Time) Listing {
	photos := make([]Photo, 0, len(l.Photos)+1)
	photos = append(photos, l.Photos...)
	l.Photos = append(photos, p)
	l.UpdatedAt = now
	return l
}

// WithoutPhoto removes the photo stored under key. The last photo of an
// available listing cannot be removed.
func (l Listing) WithoutPhoto(key string, now time.Time) (Listing, error) {
	idx := -1
	for i, p := range l.Photos {
		if p.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Listing{}, &NotFoundError{Entity: "photo", ID: key}
	}
	if l.Available && len(l.Photos) == 1 {
		return Listing{}, &ConflictError{Entity: "listing", Reason: "cannot remove the last photo of a published listing"}
	}
	photos := make([]Photo, 0, len(l.Photos)-1)
	photos = append(photos, l.Photos[:idx]...)
	l.Photos = append(photos, l.Photos[idx+1:]...)
	l.UpdatedAt = now
	return l, nil
}

// Bookable reports whether tenants may request this listing.
func (l Listing) Bookable() bool {
	return l.Moderation == ModerationApproved && l.Available
}

// CheckInvariants verifies the listing's cross-field rules.
func (l Listing) CheckInvariants() error {
	if l.Available && l.Moderation != ModerationApproved {
		return &ConflictError{Entity: "listing", Reason: "available listing must be approved"}
	}
	if l.Available && len(l.Photos) == 0 {
		return &ConflictError{Entity: "listing", Reason: "available listing must have a photo"}
	}
	return nil
}
