package domain

import (
	"strings"
	"time"
)

// DisputeStatus represents the lifecycle state of a dispute.
type DisputeStatus string

const (
	DisputeOpen       DisputeStatus = "open"
	DisputeInProgress DisputeStatus = "in_progress"
	DisputeResolved   DisputeStatus = "resolved"
	DisputeClosed     DisputeStatus = "closed"
)

// DisputeEvent triggers a dispute transition.
type DisputeEvent string

const (
	DisputeEventOpen    DisputeEvent = "open"
	DisputeEventComment DisputeEvent = "comment"
	DisputeEventResolve DisputeEvent = "resolve"
	DisputeEventClose   DisputeEvent = "close"
)

// DisputeMachine defines the dispute lifecycle. Commenting is not guarded by
// state; it only moves an open dispute in progress.
var DisputeMachine = Machine[DisputeStatus, DisputeEvent]{
	Entity: "dispute",
	Transitions: []Transition[DisputeStatus, DisputeEvent]{
		{Event: DisputeEventComment, Src: DisputeOpen, Dst: DisputeInProgress},
		{Event: DisputeEventResolve, Src: DisputeOpen, Dst: DisputeResolved},
		{Event: DisputeEventResolve, Src: DisputeInProgress, Dst: DisputeResolved},
		{Event: DisputeEventClose, Src: DisputeOpen, Dst: DisputeClosed},
		{Event: DisputeEventClose, Src: DisputeInProgress, Dst: DisputeClosed},
	},
	Preconditions: map[DisputeEvent]string{
		DisputeEventResolve: "dispute is already resolved or closed",
		DisputeEventClose:   "dispute is already resolved or closed",
	},
}

// DisputeCategory is what the dispute is about.
type DisputeCategory string

const (
	DisputeCategoryBooking DisputeCategory = "booking"
	DisputeCategoryPayment DisputeCategory = "payment"
	DisputeCategoryListing DisputeCategory = "listing"
	DisputeCategoryOther   DisputeCategory = "other"
)

// Valid reports whether c is a known category.
func (c DisputeCategory) Valid() bool {
	switch c {
	case DisputeCategoryBooking, DisputeCategoryPayment, DisputeCategoryListing, DisputeCategoryOther:
		return true
	}
	return false
}

const (
	minDisputeDescription = 10
	maxDisputeDescription = 5000
	maxCommentLength      = 2000
)

// Comment is one timestamped entry of a dispute thread.
type Comment struct {
	AuthorID  string
	Text      string
	CreatedAt time.Time
}

// Dispute is an escalated disagreement between a tenant and an owner.
type Dispute struct {
	ID          string
	BookingID   string
	TenantID    string
	OwnerID     string
	OpenedBy    string
	Category    DisputeCategory
	Description string
	Status      DisputeStatus
	Resolution  string
	Comments    []Comment
	ResolvedAt  *time.Time
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisputeRequest carries the input for opening a dispute.
type DisputeRequest struct {
	BookingID   string
	OwnerID     string // required when BookingID is empty
	Category    DisputeCategory
	Description string
}

// NewDispute opens a dispute. When booking is non-nil the parties come from
// it and the opener must be one of them; otherwise the opener is the tenant
// and req.OwnerID names the owner.
func NewDispute(id string, opener Actor, booking *Booking, req DisputeRequest, now time.Time) (Dispute, error) {
	if !req.Category.Valid() {
		return Dispute{}, invalid("category", "unknown dispute category %q", req.Category)
	}
	desc := strings.TrimSpace(req.Description)
	if n := len([]rune(desc)); n < minDisputeDescription || n > maxDisputeDescription {
		return Dispute{}, invalid("description", "must be between %d and %d characters", minDisputeDescription, maxDisputeDescription)
	}
	d := Dispute{
		ID:          id,
		OpenedBy:    opener.ID,
		Category:    req.Category,
		Description: desc,
		Status:      DisputeOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if booking != nil {
		if !booking.IsParty(opener) {
			return Dispute{}, opener.forbid("open a dispute on this booking")
		}
		d.BookingID = booking.ID
		d.TenantID = booking.TenantID
		d.OwnerID = booking.OwnerID
		return d, nil
	}
	owner := strings.TrimSpace(req.OwnerID)
	if owner == "" {
		return Dispute{}, invalid("owner_id", "is required for disputes without a booking")
	}
	if owner == opener.ID {
		return Dispute{}, invalid("owner_id", "must differ from the opener")
	}
	d.TenantID = opener.ID
	d.OwnerID = owner
	return d, nil
}

// IsParty reports whether actor is the dispute's tenant or owner.
func (d Dispute) IsParty(actor Actor) bool {
	return actor.ID == d.TenantID || actor.ID == d.OwnerID
}

// AuthorizeComment fails unless actor is a party or an administrator.
func (d Dispute) AuthorizeComment(actor Actor) error {
	if !d.IsParty(actor) && !actor.IsAdmin() {
		return actor.forbid("comment on this dispute")
	}
	return nil
}

// AuthorizeSettle fails unless actor is an administrator.
func (d Dispute) AuthorizeSettle(actor Actor) error {
	if !actor.IsAdmin() {
		return actor.forbid("settle disputes")
	}
	return nil
}

// NewComment validates a comment body.
func NewComment(authorID, text string, now time.Time) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, invalid("comment", "must not be empty")
	}
	if len([]rune(text)) > maxCommentLength {
		return Comment{}, invalid("comment", "must be at most %d characters", maxCommentLength)
	}
	return Comment{AuthorID: authorID, Text: text, CreatedAt: now}, nil
}

// WithComment appends a comment and, when to is non-empty, moves the dispute.
func (d Dispute) WithComment(c Comment, to DisputeStatus) Dispute {
	comments := make([]Comment, 0, len(d.Comments)+1)
	comments = append(comments, d.Comments...)
	d.Comments = append(comments, c)
	if to != "" {
		d.Status = to
	}
	d.UpdatedAt = c.CreatedAt
	return d
}

// NewResolution validates resolution text.
func NewResolution(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", invalid("resolution", "must not be empty")
	}
	if len([]rune(text)) > maxDisputeDescription {
		return "", invalid("resolution", "must be at most %d characters", maxDisputeDescription)
	}
	return text, nil
}

// Resolved applies a validated "resolve" transition.
func (d Dispute) Resolved(to DisputeStatus, resolution string, now time.Time) Dispute {
	d.Status = to
	d.Resolution = resolution
	d.ResolvedAt = &now
	d.UpdatedAt = now
	return d
}

// Closed applies a validated "close" transition.
func (d Dispute) Closed(to DisputeStatus, now time.Time) Dispute {
	d.Status = to
	d.UpdatedAt = now
	return d
}
