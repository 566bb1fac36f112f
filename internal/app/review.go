package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// ReviewService handles tenant reviews of completed stays.
type ReviewService struct {
	base
	reviews  domain.ReviewRepository
	bookings domain.BookingRepository
}

// NewReviewService creates a service with the given adapters.
func NewReviewService(reviews domain.ReviewRepository, bookings domain.BookingRepository, publisher domain.EventPublisher, opts ...Option) *ReviewService {
	return &ReviewService{
		base:     newBase(publisher, opts),
		reviews:  reviews,
		bookings: bookings,
	}
}

// Create rates a completed booking. A booking is reviewed at most once.
func (s *ReviewService) Create(ctx context.Context, author domain.Actor, bookingID string, rating int, comment string) (domain.Review, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return domain.Review{}, err
	}
	id, err := newEntityID("review")
	if err != nil {
		return domain.Review{}, err
	}
	r, err := domain.NewReview(id, b, author, rating, comment, s.now())
	if err != nil {
		return domain.Review{}, err
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return domain.Review{}, fmt.Errorf("creating review: %w", err)
	}
	s.publish(ctx, domain.LifecycleEvent{
		Entity:     "review",
		EntityID:   r.ID,
		Event:      "create",
		ActorID:    author.ID,
		Recipients: []string{r.OwnerID},
	})
	return r, nil
}

// Get returns a review by id.
func (s *ReviewService) Get(ctx context.Context, id string) (domain.Review, error) {
	return s.reviews.GetByID(ctx, id)
}

// ListByListing returns the reviews of a listing.
func (s *ReviewService) ListByListing(ctx context.Context, listingID string) ([]domain.Review, error) {
	return s.reviews.ListByListing(ctx, listingID)
}

// Update re-validates and applies the changed fields.
func (s *ReviewService) Update(ctx context.Context, actor domain.Actor, id string, u domain.ReviewUpdate) (domain.Review, error) {
	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return domain.Review{}, err
	}
	r, err = r.Update(actor, u, s.now())
	if err != nil {
		return domain.Review{}, err
	}
	if err := s.reviews.Update(ctx, r); err != nil {
		return domain.Review{}, fmt.Errorf("updating review: %w", err)
	}
	r.Version++
	return r, nil
}
