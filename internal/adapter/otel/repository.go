package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/rentwise/internal/domain"
)

const tracerName = "github.com/neomorfeo/rentwise/internal/adapter/otel"

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// traced runs fn inside a span named name and records its error, if any.
func traced[T any](ctx context.Context, t trace.Tracer, name string, fn func(context.Context) (T, error), attrs ...attribute.KeyValue) (T, error) {
	ctx, span := t.Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	v, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.kind", string(domain.KindOf(err))))
	}
	return v, err
}

func tracedErr(ctx context.Context, t trace.Tracer, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	_, err := traced(ctx, t, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, attrs...)
	return err
}

func tracedList[T any](ctx context.Context, t trace.Tracer, name string, fn func(context.Context) ([]T, error), attrs ...attribute.KeyValue) ([]T, error) {
	ctx, span := t.Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	items, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(items)))
	}
	return items, err
}

func page(limit, offset int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("filter.limit", limit),
		attribute.Int("filter.offset", offset),
	}
}

// TracingListingRepository wraps a domain.ListingRepository with OpenTelemetry tracing.
type TracingListingRepository struct {
	next   domain.ListingRepository
	tracer trace.Tracer
}

var _ domain.ListingRepository = (*TracingListingRepository)(nil)

func NewTracingListingRepository(next domain.ListingRepository) *TracingListingRepository {
	return &TracingListingRepository{next: next, tracer: tracer()}
}

func (r *TracingListingRepository) Create(ctx context.Context, l domain.Listing) error {
	return tracedErr(ctx, r.tracer, "ListingRepository.Create", func(ctx context.Context) error {
		return r.next.Create(ctx, l)
	}, attribute.String("listing.id", l.ID), attribute.String("listing.owner_id", l.OwnerID))
}

func (r *TracingListingRepository) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	return traced(ctx, r.tracer, "ListingRepository.GetByID", func(ctx context.Context) (domain.Listing, error) {
		return r.next.GetByID(ctx, id)
	}, attribute.String("listing.id", id))
}

func (r *TracingListingRepository) List(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	attrs := page(f.Limit, f.Offset)
	if f.City != "" {
		attrs = append(attrs, attribute.String("filter.city", f.City))
	}
	if f.Category != nil {
		attrs = append(attrs, attribute.String("filter.category", string(*f.Category)))
	}
	return tracedList(ctx, r.tracer, "ListingRepository.List", func(ctx context.Context) ([]domain.Listing, error) {
		return r.next.List(ctx, f)
	}, attrs...)
}

func (r *TracingListingRepository) Update(ctx context.Context, l domain.Listing) error {
	return tracedErr(ctx, r.tracer, "ListingRepository.Update", func(ctx context.Context) error {
		return r.next.Update(ctx, l)
	}, attribute.String("listing.id", l.ID), attribute.String("listing.moderation", string(l.Moderation)),
		attribute.Int64("listing.version", l.Version))
}

// TracingBookingRepository wraps a domain.BookingRepository with OpenTelemetry tracing.
type TracingBookingRepository struct {
	next   domain.BookingRepository
	tracer trace.Tracer
}

var _ domain.BookingRepository = (*TracingBookingRepository)(nil)

func NewTracingBookingRepository(next domain.BookingRepository) *TracingBookingRepository {
	return &TracingBookingRepository{next: next, tracer: tracer()}
}

func (r *TracingBookingRepository) Create(ctx context.Context, b domain.Booking) error {
	return tracedErr(ctx, r.tracer, "BookingRepository.Create", func(ctx context.Context) error {
		return r.next.Create(ctx, b)
	}, attribute.String("booking.id", b.ID), attribute.String("booking.listing_id", b.ListingID))
}

func (r *TracingBookingRepository) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	return traced(ctx, r.tracer, "BookingRepository.GetByID", func(ctx context.Context) (domain.Booking, error) {
		return r.next.GetByID(ctx, id)
	}, attribute.String("booking.id", id))
}

func (r *TracingBookingRepository) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	attrs := page(f.Limit, f.Offset)
	if f.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*f.Status)))
	}
	return tracedList(ctx, r.tracer, "BookingRepository.List", func(ctx context.Context) ([]domain.Booking, error) {
		return r.next.List(ctx, f)
	}, attrs...)
}

func (r *TracingBookingRepository) Update(ctx context.Context, b domain.Booking) error {
	return tracedErr(ctx, r.tracer, "BookingRepository.Update", func(ctx context.Context) error {
		return r.next.Update(ctx, b)
	}, attribute.String("booking.id", b.ID), attribute.String("booking.status", string(b.Status)),
		attribute.Int64("booking.version", b.Version))
}

// TracingPaymentRepository wraps a domain.PaymentRepository with OpenTelemetry tracing.
type TracingPaymentRepository struct {
	next   domain.PaymentRepository
	tracer trace.Tracer
}

var _ domain.PaymentRepository = (*TracingPaymentRepository)(nil)

func NewTracingPaymentRepository(next domain.PaymentRepository) *TracingPaymentRepository {
	return &TracingPaymentRepository{next: next, tracer: tracer()}
}

func (r *TracingPaymentRepository) Create(ctx context.Context, p domain.Payment) error {
	return tracedErr(ctx, r.tracer, "PaymentRepository.Create", func(ctx context.Context) error {
		return r.next.Create(ctx, p)
	}, attribute.String("payment.id", p.ID), attribute.String("payment.method", string(p.Method)))
}

func (r *TracingPaymentRepository) GetByID(ctx context.Context, id string) (domain.Payment, error) {
	return traced(ctx, r.tracer, "PaymentRepository.GetByID", func(ctx context.Context) (domain.Payment, error) {
		return r.next.GetByID(ctx, id)
	}, attribute.String("payment.id", id))
}

func (r *TracingPaymentRepository) ListByBooking(ctx context.Context, bookingID string) ([]domain.Payment, error) {
	return tracedList(ctx, r.tracer, "PaymentRepository.ListByBooking", func(ctx context.Context) ([]domain.Payment, error) {
		return r.next.ListByBooking(ctx, bookingID)
	}, attribute.String("booking.id", bookingID))
}

func (r *TracingPaymentRepository) Update(ctx context.Context, p domain.Payment) error {
	return tracedErr(ctx, r.tracer, "PaymentRepository.Update", func(ctx context.Context) error {
		return r.next.Update(ctx, p)
	}, attribute.String("payment.id", p.ID), attribute.String("payment.status", string(p.Status)),
		attribute.Int64("payment.version", p.Version))
}

// TracingDisputeRepository wraps a domain.DisputeRepository with OpenTelemetry tracing.
type TracingDisputeRepository struct {
	next   domain.DisputeRepository
	tracer trace.Tracer
}

var _ domain.DisputeRepository = (*TracingDisputeRepository)(nil)

func NewTracingDisputeRepository(next domain.DisputeRepository) *TracingDisputeRepository {
	return &TracingDisputeRepository{next: next, tracer: tracer()}
}

func (r *TracingDisputeRepository) Create(ctx context.Context, d domain.Dispute) error {
	return tracedErr(ctx, r.tracer, "DisputeRepository.Create", func(ctx context.Context) error {
		return r.next.Create(ctx, d)
	}, attribute.String("dispute.id", d.ID), attribute.String("dispute.category", string(d.Category)))
}

func (r *TracingDisputeRepository) GetByID(ctx context.Context, id string) (domain.Dispute, error) {
	return traced(ctx, r.tracer, "DisputeRepository.GetByID", func(ctx context.Context) (domain.Dispute, error) {
		return r.next.GetByID(ctx, id)
	}, attribute.String("dispute.id", id))
}

func (r *TracingDisputeRepository) List(ctx context.Context, f domain.DisputeFilter) ([]domain.Dispute, error) {
	return tracedList(ctx, r.tracer, "DisputeRepository.List", func(ctx context.Context) ([]domain.Dispute, error) {
		return r.next.List(ctx, f)
	}, page(f.Limit, f.Offset)...)
}

func (r *TracingDisputeRepository) Update(ctx context.Context, d domain.Dispute) error {
	return tracedErr(ctx, r.tracer, "DisputeRepository.Update", func(ctx context.Context) error {
		return r.next.Update(ctx, d)
	}, attribute.String("dispute.id", d.ID), attribute.String("dispute.status", string(d.Status)),
		attribute.Int64("dispute.version", d.Version))
}

// TracingSubscriptionRepository wraps a domain.SubscriptionRepository with OpenTelemetry tracing.
type TracingSubscriptionRepository struct {
	next   domain.SubscriptionRepository
	tracer trace.Tracer
}

var _ domain.SubscriptionRepository = (*TracingSubscriptionRepository)(nil)

func NewTracingSubscriptionRepository(next domain.SubscriptionRepository) *TracingSubscriptionRepository {
	return &TracingSubscriptionRepository{next: next, tracer: tracer()}
}

func (r *TracingSubscriptionRepository) Create(ctx context.Context, s domain.Subscription) error {
	return tracedErr(ctx, r.tracer, "SubscriptionRepository.Create", func(ctx context.Context) error {
		return r.next.Create(ctx, s)
	}, attribute.String("subscription.id", s.ID), attribute.String("subscription.number", s.MembershipNumber))
}

func (r *TracingSubscriptionRepository) GetByID(ctx context.Context, id string) (domain.Subscription, error) {
	return traced(ctx, r.tracer, "SubscriptionRepository.GetByID", func(ctx context.Context) (domain.Subscription, error) {
		return r.next.GetByID(ctx, id)
	}, attribute.String("subscription.id", id))
}

func (r *TracingSubscriptionRepository) GetActiveByMember(ctx context.Context, memberID string) (domain.Subscription, error) {
	return traced(ctx, r.tracer, "SubscriptionRepository.GetActiveByMember", func(ctx context.Context) (domain.Subscription, error) {
		return r.next.GetActiveByMember(ctx, memberID)
	}, attribute.String("subscription.member_id", memberID))
}

func (r *TracingSubscriptionRepository) GetByMembershipNumber(ctx context.Context, number string) (domain.Subscription, error) {
	return traced(ctx, r.tracer, "SubscriptionRepository.GetByMembershipNumber", func(ctx context.Context) (domain.Subscription, error) {
		return r.next.GetByMembershipNumber(ctx, number)
	}, attribute.String("subscription.number", number))
}

func (r *TracingSubscriptionRepository) Update(ctx context.Context, s domain.Subscription) error {
	return tracedErr(ctx, r.tracer, "SubscriptionRepository.Update", func(ctx context.Context) error {
		return r.next.Update(ctx, s)
	}, attribute.String("subscription.id", s.ID), attribute.String("subscription.status", string(s.Status)))
}

// TracingContributionRepository wraps a domain.ContributionRepository with OpenTelemetry tracing.
type TracingContributionRepository struct {
	next   domain.ContributionRepository
	tracer trace.Tracer
}

var _ domain.ContributionRepository = (*TracingContributionRepository)(nil)

func NewTracingContributionRepository(next domain.ContributionRepository) *TracingContributionRepository {
	return &TracingContributionRepository{next: next, tracer: tracer()}
}

func (r *TracingContributionRepository) Create(ctx context.Context, c domain.Contribution) error {
	return tracedErr(ctx, r.tracer, "ContributionRepository.Create", func(ctx context.Context) error {
		return r.next.Create(ctx, c)
	}, attribute.String("contribution.id", c.ID), attribute.String("contribution.period", c.Period.String()))
}

func (r *TracingContributionRepository) GetByPeriod(ctx context.Context, subscriptionID string, period domain.BillingPeriod) (domain.Contribution, error) {
	return traced(ctx, r.tracer, "ContributionRepository.GetByPeriod", func(ctx context.Context) (domain.Contribution, error) {
		return r.next.GetByPeriod(ctx, subscriptionID, period)
	}, attribute.String("subscription.id", subscriptionID), attribute.String("contribution.period", period.String()))
}

func (r *TracingContributionRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]domain.Contribution, error) {
	return tracedList(ctx, r.tracer, "ContributionRepository.ListBySubscription", func(ctx context.Context) ([]domain.Contribution, error) {
		return r.next.ListBySubscription(ctx, subscriptionID)
	}, attribute.String("subscription.id", subscriptionID))
}

func (r *TracingContributionRepository) Update(ctx context.Context, c domain.Contribution) error {
	return tracedErr(ctx, r.tracer, "ContributionRepository.Update", func(ctx context.Context) error {
		return r.next.Update(ctx, c)
	}, attribute.String("contribution.id", c.ID), attribute.String("contribution.status", string(c.Status)))
}

// TracingMessageRepository wraps a domain.MessageRepository with OpenTelemetry tracing.
type TracingMessageRepository struct {
	next   domain.MessageRepository
	tracer trace.Tracer
}

var _ domain.MessageRepository = (*TracingMessageRepository)(nil)

func NewTracingMessageRepository(next domain.MessageRepository) *TracingMessageRepository {
	return &TracingMessageRepository{next: next, tracer: tracer()}
}

func (r *TracingMessageRepository) Create(ctx context.Context, m domain.Message) error {
	return tracedErr(ctx, r.tracer, "MessageRepository.Create", func(ctx context.Context) error {
		return r.next.Create(ctx, m)
	}, attribute.String("message.id", m.ID), attribute.String("booking.id", m.BookingID))
}

func (r *TracingMessageRepository) GetByID(ctx context.Context, id string) (domain.Message, error) {
	return traced(ctx, r.tracer, "MessageRepository.GetByID", func(ctx context.Context) (domain.Message, error) {
		return r.next.GetByID(ctx, id)
	}, attribute.String("message.id", id))
}

func (r *TracingMessageRepository) ListByBooking(ctx context.Context, bookingID string) ([]domain.Message, error) {
	return tracedList(ctx, r.tracer, "MessageRepository.ListByBooking", func(ctx context.Context) ([]domain.Message, error) {
		return r.next.ListByBooking(ctx, bookingID)
	}, attribute.String("booking.id", bookingID))
}

func (r *TracingMessageRepository) Update(ctx context.Context, m domain.Message) error {
	return tracedErr(ctx, r.tracer, "MessageRepository.Update", func(ctx context.Context) error {
		return r.next.Update(ctx, m)
	}, attribute.String("message.id", m.ID))
}

// TracingReviewRepository wraps a domain.ReviewRepository with OpenTelemetry tracing.
type TracingReviewRepository struct {
	next   domain.ReviewRepository
	tracer trace.Tracer
}

var _ domain.ReviewRepository = (*TracingReviewRepository)(nil)

func NewTracingReviewRepository(next domain.ReviewRepository) *TracingReviewRepository {
	return &TracingReviewRepository{next: next, tracer: tracer()}
}

func (r *TracingReviewRepository) Create(ctx context.Context, rv domain.Review) error {
	return tracedErr(ctx, r.tracer, "ReviewRepository.Create", func(ctx context.Context) error {
		return r.next.Create(ctx, rv)
	}, attribute.String("review.id", rv.ID), attribute.String("booking.id", rv.BookingID))
}

func (r *TracingReviewRepository) GetByID(ctx context.Context, id string) (domain.Review, error) {
	return traced(ctx, r.tracer, "ReviewRepository.GetByID", func(ctx context.Context) (domain.Review, error) {
		return r.next.GetByID(ctx, id)
	}, attribute.String("review.id", id))
}

func (r *TracingReviewRepository) GetByBooking(ctx context.Context, bookingID string) (domain.Review, error) {
	return traced(ctx, r.tracer, "ReviewRepository.GetByBooking", func(ctx context.Context) (domain.Review, error) {
		return r.next.GetByBooking(ctx, bookingID)
	}, attribute.String("booking.id", bookingID))
}

func (r *TracingReviewRepository) ListByListing(ctx context.Context, listingID string) ([]domain.Review, error) {
	return tracedList(ctx, r.tracer, "ReviewRepository.ListByListing", func(ctx context.Context) ([]domain.Review, error) {
		return r.next.ListByListing(ctx, listingID)
	}, attribute.String("listing.id", listingID))
}

func (r *TracingReviewRepository) Update(ctx context.Context, rv domain.Review) error {
	return tracedErr(ctx, r.tracer, "ReviewRepository.Update", func(ctx context.Context) error {
		return r.next.Update(ctx, rv)
	}, attribute.String("review.id", rv.ID))
}
