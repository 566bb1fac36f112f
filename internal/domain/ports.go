package domain

import (
	"context"
	"io"
	"time"
)

// ListingRepository defines the persistence contract for listings.
// Update replaces the full entity only if its Version matches the stored one.
type ListingRepository interface {
	Create(ctx context.Context, listing Listing) error
	GetByID(ctx context.Context, id string) (Listing, error)
	List(ctx context.Context, filter ListingFilter) ([]Listing, error)
	Update(ctx context.Context, listing Listing) error
}

// ListingFilter holds optional criteria for listing searches.
type ListingFilter struct {
	OwnerID       string
	Category      *Category
	City          string
	Moderation    *ModerationStatus
	AvailableOnly bool
	Limit         int
	Offset        int
}

// ViewCounter counts public detail reads of listings.
type ViewCounter interface {
	IncrementViews(ctx context.Context, listingID string) (int64, error)
	Views(ctx context.Context, listingID string) (int64, error)
}

// BookingRepository defines the persistence contract for bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking Booking) error
	GetByID(ctx context.Context, id string) (Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]Booking, error)
	Update(ctx context.Context, booking Booking) error
}

// BookingFilter holds optional criteria for listing bookings.
type BookingFilter struct {
	ListingID string
	TenantID  string
	OwnerID   string
	Status    *BookingStatus
	Limit     int
	Offset    int
}

// PaymentRepository defines the persistence contract for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment Payment) error
	GetByID(ctx context.Context, id string) (Payment, error)
	ListByBooking(ctx context.Context, bookingID string) ([]Payment, error)
	Update(ctx context.Context, payment Payment) error
}

// DisputeRepository defines the persistence contract for disputes.
type DisputeRepository interface {
	Create(ctx context.Context, dispute Dispute) error
	GetByID(ctx context.Context, id string) (Dispute, error)
	List(ctx context.Context, filter DisputeFilter) ([]Dispute, error)
	Update(ctx context.Context, dispute Dispute) error
}

// DisputeFilter holds optional criteria for listing disputes.
type DisputeFilter struct {
	PartyID   string
	BookingID string
	Status    *DisputeStatus
	Limit     int
	Offset    int
}

// ErrMembershipNumberTaken is returned by SubscriptionRepository.Create when
// the generated membership number already exists.
var ErrMembershipNumberTaken = &ConflictError{Entity: "subscription", Reason: "membership number already issued"}

// SubscriptionRepository defines the persistence contract for memberships.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub Subscription) error
	GetByID(ctx context.Context, id string) (Subscription, error)
	GetActiveByMember(ctx context.Context, memberID string) (Subscription, error)
	GetByMembershipNumber(ctx context.Context, number string) (Subscription, error)
	Update(ctx context.Context, sub Subscription) error
}

// ContributionRepository defines the persistence contract for monthly dues.
// Create fails with a *ConflictError when the period already has a row.
type ContributionRepository interface {
	Create(ctx context.Context, c Contribution) error
	GetByPeriod(ctx context.Context, subscriptionID string, period BillingPeriod) (Contribution, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]Contribution, error)
	Update(ctx context.Context, c Contribution) error
}

// MessageRepository defines the persistence contract for booking messages.
type MessageRepository interface {
	Create(ctx context.Context, m Message) error
	GetByID(ctx context.Context, id string) (Message, error)
	ListByBooking(ctx context.Context, bookingID string) ([]Message, error)
	Update(ctx context.Context, m Message) error
}

// ReviewRepository defines the persistence contract for reviews.
// Create fails with a *ConflictError when the booking is already reviewed.
type ReviewRepository interface {
	Create(ctx context.Context, r Review) error
	GetByID(ctx context.Context, id string) (Review, error)
	GetByBooking(ctx context.Context, bookingID string) (Review, error)
	ListByListing(ctx context.Context, listingID string) ([]Review, error)
	Update(ctx context.Context, r Review) error
}

// FileStorage stores listing photos and documents.
type FileStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (url string, err error)
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

// GatewayStatus is the provider-side state reported on initiation.
type GatewayStatus string

const (
	GatewayPending   GatewayStatus = "pending"
	GatewaySucceeded GatewayStatus = "succeeded"
	GatewayFailed    GatewayStatus = "failed"
)

// GatewayRequest asks a provider to start collecting a payment.
type GatewayRequest struct {
	PaymentID string
	Amount    Money
	Method    PaymentMethod
	Metadata  map[string]string
}

// GatewayReceipt is the provider's answer to an initiation.
type GatewayReceipt struct {
	TransactionID string
	Status        GatewayStatus
}

// PaymentGateway talks to one external payment provider.
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req GatewayRequest) (GatewayReceipt, error)
	ValidatePayment(ctx context.Context, transactionID string) (bool, error)
	RefundPayment(ctx context.Context, transactionID string, amount Money) (bool, error)
}

// LifecycleEvent describes one successful transition.
type LifecycleEvent struct {
	Entity     string
	EntityID   string
	Event      string
	Status     string
	ActorID    string
	Recipients []string
	OccurredAt time.Time
}

// EventPublisher defines the contract for emitting lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}

// Email is one outgoing notification.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers emails.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}
