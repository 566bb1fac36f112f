package memory

import (
	"context"
	"strings"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// Compile-time interface checks.
var (
	_ domain.ListingRepository      = (*ListingRepository)(nil)
	_ domain.BookingRepository      = (*BookingRepository)(nil)
	_ domain.PaymentRepository      = (*PaymentRepository)(nil)
	_ domain.DisputeRepository      = (*DisputeRepository)(nil)
	_ domain.SubscriptionRepository = (*SubscriptionRepository)(nil)
	_ domain.ContributionRepository = (*ContributionRepository)(nil)
	_ domain.MessageRepository      = (*MessageRepository)(nil)
	_ domain.ReviewRepository       = (*ReviewRepository)(nil)
)

// ListingRepository stores listings in memory.
type ListingRepository struct{ t *table[domain.Listing] }

func NewListingRepository() *ListingRepository {
	return &ListingRepository{t: newTable("listing",
		func(l domain.Listing) string { return l.ID },
		func(l domain.Listing) int64 { return l.Version },
		func(l domain.Listing) domain.Listing { l.Version++; return l },
	)}
}

func (r *ListingRepository) Create(_ context.Context, l domain.Listing) error {
	return r.t.insert(l, nil)
}

func (r *ListingRepository) GetByID(_ context.Context, id string) (domain.Listing, error) {
	return r.t.get(id)
}

func (r *ListingRepository) List(_ context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	out := r.t.filter(func(l domain.Listing) bool {
		switch {
		case f.OwnerID != "" && l.OwnerID != f.OwnerID:
			return false
		case f.Category != nil && l.Category != *f.Category:
			return false
		case f.City != "" && !strings.EqualFold(l.Address.City, f.City):
			return false
		case f.Moderation != nil && l.Moderation != *f.Moderation:
			return false
		case f.AvailableOnly && !l.Available:
			return false
		}
		return true
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *ListingRepository) Update(_ context.Context, l domain.Listing) error {
	return r.t.update(l)
}

// BookingRepository stores bookings in memory.
type BookingRepository struct{ t *table[domain.Booking] }

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{t: newTable("booking",
		func(b domain.Booking) string { return b.ID },
		func(b domain.Booking) int64 { return b.Version },
		func(b domain.Booking) domain.Booking { b.Version++; return b },
	)}
}

func (r *BookingRepository) Create(_ context.Context, b domain.Booking) error {
	return r.t.insert(b, nil)
}

func (r *BookingRepository) GetByID(_ context.Context, id string) (domain.Booking, error) {
	return r.t.get(id)
}

func (r *BookingRepository) List(_ context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	out := r.t.filter(func(b domain.Booking) bool {
		switch {
		case f.ListingID != "" && b.ListingID != f.ListingID:
			return false
		case f.TenantID != "" && b.TenantID != f.TenantID:
			return false
		case f.OwnerID != "" && b.OwnerID != f.OwnerID:
			return false
		case f.Status != nil && b.Status != *f.Status:
			return false
		}
		return true
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *BookingRepository) Update(_ context.Context, b domain.Booking) error {
	return r.t.update(b)
}

// PaymentRepository stores payments in memory.
type PaymentRepository struct{ t *table[domain.Payment] }

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{t: newTable("payment",
		func(p domain.Payment) string { return p.ID },
		func(p domain.Payment) int64 { return p.Version },
		func(p domain.Payment) domain.Payment { p.Version++; return p },
	)}
}

func (r *PaymentRepository) Create(_ context.Context, p domain.Payment) error {
	return r.t.insert(p, nil)
}

func (r *PaymentRepository) GetByID(_ context.Context, id string) (domain.Payment, error) {
	return r.t.get(id)
}

func (r *PaymentRepository) ListByBooking(_ context.Context, bookingID string) ([]domain.Payment, error) {
	return r.t.filter(func(p domain.Payment) bool { return p.BookingID == bookingID }), nil
}

func (r *PaymentRepository) Update(_ context.Context, p domain.Payment) error {
	return r.t.update(p)
}

// DisputeRepository stores disputes in memory.
type DisputeRepository struct{ t *table[domain.Dispute] }

func NewDisputeRepository() *DisputeRepository {
	return &DisputeRepository{t: newTable("dispute",
		func(d domain.Dispute) string { return d.ID },
		func(d domain.Dispute) int64 { return d.Version },
		func(d domain.Dispute) domain.Dispute { d.Version++; return d },
	)}
}

func (r *DisputeRepository) Create(_ context.Context, d domain.Dispute) error {
	return r.t.insert(d, nil)
}

func (r *DisputeRepository) GetByID(_ context.Context, id string) (domain.Dispute, error) {
	return r.t.get(id)
}

func (r *DisputeRepository) List(_ context.Context, f domain.DisputeFilter) ([]domain.Dispute, error) {
	out := r.t.filter(func(d domain.Dispute) bool {
		switch {
		case f.PartyID != "" && d.TenantID != f.PartyID && d.OwnerID != f.PartyID:
			return false
		case f.BookingID != "" && d.BookingID != f.BookingID:
			return false
		case f.Status != nil && d.Status != *f.Status:
			return false
		}
		return true
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *DisputeRepository) Update(_ context.Context, d domain.Dispute) error {
	return r.t.update(d)
}

// SubscriptionRepository stores memberships in memory. Membership numbers
// are unique and a member holds at most one active subscription.
type SubscriptionRepository struct{ t *table[domain.Subscription] }

func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{t: newTable("subscription",
		func(s domain.Subscription) string { return s.ID },
		func(s domain.Subscription) int64 { return s.Version },
		func(s domain.Subscription) domain.Subscription { s.Version++; return s },
	)}
}

func (r *SubscriptionRepository) Create(_ context.Context, s domain.Subscription) error {
	return r.t.insert(s, func(existing domain.Subscription) error {
		if existing.MembershipNumber == s.MembershipNumber {
			return domain.ErrMembershipNumberTaken
		}
		if existing.MemberID == s.MemberID && existing.Active() && s.Active() {
			return &domain.ConflictError{Entity: "subscription", Reason: "member already holds an active subscription"}
		}
		return nil
	})
}

func (r *SubscriptionRepository) GetByID(_ context.Context, id string) (domain.Subscription, error) {
	return r.t.get(id)
}

func (r *SubscriptionRepository) GetActiveByMember(_ context.Context, memberID string) (domain.Subscription, error) {
	s, ok := r.t.find(func(s domain.Subscription) bool { return s.MemberID == memberID && s.Active() })
	if !ok {
		return domain.Subscription{}, &domain.NotFoundError{Entity: "active subscription", ID: memberID}
	}
	return s, nil
}

func (r *SubscriptionRepository) GetByMembershipNumber(_ context.Context, number string) (domain.Subscription, error) {
	s, ok := r.t.find(func(s domain.Subscription) bool { return s.MembershipNumber == number })
	if !ok {
		return domain.Subscription{}, &domain.NotFoundError{Entity: "subscription", ID: number}
	}
	return s, nil
}

func (r *SubscriptionRepository) Update(_ context.Context, s domain.Subscription) error {
	return r.t.update(s)
}

// ContributionRepository stores monthly dues in memory, one per period.
type ContributionRepository struct{ t *table[domain.Contribution] }

func NewContributionRepository() *ContributionRepository {
	return &ContributionRepository{t: newTable("contribution",
		func(c domain.Contribution) string { return c.ID },
		func(c domain.Contribution) int64 { return c.Version },
		func(c domain.Contribution) domain.Contribution { c.Version++; return c },
	)}
}

func (r *ContributionRepository) Create(_ context.Context, c domain.Contribution) error {
	return r.t.insert(c, func(existing domain.Contribution) error {
		if existing.SubscriptionID == c.SubscriptionID && existing.Period == c.Period {
			return &domain.ConflictError{Entity: "contribution", Reason: "period " + c.Period.String() + " already recorded"}
		}
		return nil
	})
}

func (r *ContributionRepository) GetByPeriod(_ context.Context, subscriptionID string, period domain.BillingPeriod) (domain.Contribution, error) {
	c, ok := r.t.find(func(c domain.Contribution) bool {
		return c.SubscriptionID == subscriptionID && c.Period == period
	})
	if !ok {
		return domain.Contribution{}, &domain.NotFoundError{Entity: "contribution", ID: subscriptionID + "/" + period.String()}
	}
	return c, nil
}

func (r *ContributionRepository) ListBySubscription(_ context.Context, subscriptionID string) ([]domain.Contribution, error) {
	return r.t.filter(func(c domain.Contribution) bool { return c.SubscriptionID == subscriptionID }), nil
}

func (r *ContributionRepository) Update(_ context.Context, c domain.Contribution) error {
	return r.t.update(c)
}

// MessageRepository stores booking messages in memory.
type MessageRepository struct{ t *table[domain.Message] }

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{t: newTable("message",
		func(m domain.Message) string { return m.ID },
		func(m domain.Message) int64 { return m.Version },
		func(m domain.Message) domain.Message { m.Version++; return m },
	)}
}

func (r *MessageRepository) Create(_ context.Context, m domain.Message) error {
	return r.t.insert(m, nil)
}

func (r *MessageRepository) GetByID(_ context.Context, id string) (domain.Message, error) {
	return r.t.get(id)
}

func (r *MessageRepository) ListByBooking(_ context.Context, bookingID string) ([]domain.Message, error) {
	return r.t.filter(func(m domain.Message) bool { return m.BookingID == bookingID }), nil
}

func (r *MessageRepository) Update(_ context.Context, m domain.Message) error {
	return r.t.update(m)
}

// ReviewRepository stores reviews in memory, one per booking.
type ReviewRepository struct{ t *table[domain.Review] }

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{t: newTable("review",
		func(r domain.Review) string { return r.ID },
		func(r domain.Review) int64 { return r.Version },
		func(r domain.Review) domain.Review { r.Version++; return r },
	)}
}

func (r *ReviewRepository) Create(_ context.Context, rv domain.Review) error {
	return r.t.insert(rv, func(existing domain.Review) error {
		if existing.BookingID == rv.BookingID {
			return &domain.ConflictError{Entity: "review", Reason: "booking already reviewed"}
		}
		return nil
	})
}

func (r *ReviewRepository) GetByID(_ context.Context, id string) (domain.Review, error) {
	return r.t.get(id)
}

func (r *ReviewRepository) GetByBooking(_ context.Context, bookingID string) (domain.Review, error) {
	rv, ok := r.t.find(func(rv domain.Review) bool { return rv.BookingID == bookingID })
	if !ok {
		return domain.Review{}, &domain.NotFoundError{Entity: "review", ID: bookingID}
	}
	return rv, nil
}

func (r *ReviewRepository) ListByListing(_ context.Context, listingID string) ([]domain.Review, error) {
	return r.t.filter(func(rv domain.Review) bool { return rv.ListingID == listingID }), nil
}

func (r *ReviewRepository) Update(_ context.Context, rv domain.Review) error {
	return r.t.update(rv)
}
