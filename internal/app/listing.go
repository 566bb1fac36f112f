package app

import (
	"context"
	"fmt"
	"io"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// ListingValidator validates moderation transitions.
type ListingValidator = domain.TransitionValidator[domain.ModerationStatus, domain.ListingEvent]

// ListingService orchestrates listing moderation, availability and photos.
type ListingService struct {
	base
	repo      domain.ListingRepository
	views     domain.ViewCounter
	storage   domain.FileStorage
	validator ListingValidator
}

// NewListingService creates a service with the given adapters.
func NewListingService(
	repo domain.ListingRepository,
	views domain.ViewCounter,
	storage domain.FileStorage,
	validator ListingValidator,
	publisher domain.EventPublisher,
	opts ...Option,
) *ListingService {
	return &ListingService{
		base:      newBase(publisher, opts),
		repo:      repo,
		views:     views,
		storage:   storage,
		validator: validator,
	}
}

// Create persists a new listing awaiting moderation.
func (s *ListingService) Create(ctx context.Context, actor domain.Actor, d domain.ListingDetails) (domain.Listing, error) {
	if actor.Role != domain.RoleOwner && !actor.IsAdmin() {
		return domain.Listing{}, &domain.ForbiddenError{ActorID: actor.ID, Action: "create listings"}
	}
	id, err := newEntityID("listing")
	if err != nil {
		return domain.Listing{}, err
	}
	l, err := domain.NewListing(id, actor.ID, d, s.now())
	if err != nil {
		return domain.Listing{}, err
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return domain.Listing{}, fmt.Errorf("creating listing: %w", err)
	}
	s.publish(ctx, s.event(l, "create", actor))
	return l, nil
}

// Get returns a listing with its current view count.
func (s *ListingService) Get(ctx context.Context, id string) (domain.Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	views, err := s.views.Views(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("listing_id", id).Msg("reading view count failed")
		return l, nil
	}
	l.ViewCount = views
	return l, nil
}

// View is the public detail read: it returns the listing and counts the view.
func (s *ListingService) View(ctx context.Context, id string) (domain.Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	views, err := s.views.IncrementViews(ctx, id)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("incrementing view count: %w", err)
	}
	l.ViewCount = views
	return l, nil
}

// List returns listings matching the given filter.
func (s *ListingService) List(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	return s.repo.List(ctx, filter)
}

// UpdateDetails replaces the owner-editable attributes.
func (s *ListingService) UpdateDetails(ctx context.Context, actor domain.Actor, id string, d domain.ListingDetails) (domain.Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	l, err = l.UpdateDetails(actor, d, s.now())
	if err != nil {
		return domain.Listing{}, err
	}
	return s.save(ctx, l, "update", actor)
}

// Approve moves a listing to approved and makes it available.
func (s *ListingService) Approve(ctx context.Context, actor domain.Actor, id string) (domain.Listing, error) {
	return s.moderate(ctx, actor, id, domain.ListingEventApprove, "")
}

// Reject moves a listing to rejected and withdraws it.
func (s *ListingService) Reject(ctx context.Context, actor domain.Actor, id, reason string) (domain.Listing, error) {
	return s.moderate(ctx, actor, id, domain.ListingEventReject, reason)
}

func (s *ListingService) moderate(ctx context.Context, actor domain.Actor, id string, event domain.ListingEvent, reason string) (domain.Listing, error) {
	if err := domain.AuthorizeModerator(actor); err != nil {
		return domain.Listing{}, err
	}
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	to, err := s.validator.Apply(ctx, l.Moderation, event)
	if err != nil {
		return domain.Listing{}, err
	}
	return s.save(ctx, l.Moderated(to, reason, s.now()), string(event), actor)
}

// Publish makes an approved listing with photos available.
func (s *ListingService) Publish(ctx context.Context, actor domain.Actor, id string) (domain.Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	l, err = l.Publish(actor, s.now())
	if err != nil {
		return domain.Listing{}, err
	}
	return s.save(ctx, l, domain.ListingEventPublish, actor)
}

// Unpublish withdraws a listing from booking.
func (s *ListingService) Unpublish(ctx context.Context, actor domain.Actor, id string) (domain.Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	l, err = l.Unpublish(actor, s.now())
	if err != nil {
		return domain.Listing{}, err
	}
	return s.save(ctx, l, domain.ListingEventUnpublish, actor)
}

// AddPhoto uploads a photo and appends it to the listing. The upload is
// removed again if the listing cannot be saved.
func (s *ListingService) AddPhoto(ctx context.Context, actor domain.Actor, id, contentType string, body io.Reader) (domain.Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	if err := l.AuthorizeOwner(actor, "manage photos of this listing"); err != nil {
		return domain.Listing{}, err
	}
	photoID, err := newEntityID("photo")
	if err != nil {
		return domain.Listing{}, err
	}
	key := fmt.Sprintf("listings/%s/%s", l.ID, photoID)
	url, err := s.storage.Upload(ctx, key, contentType, body)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("uploading photo: %w", err)
	}
	saved, err := s.save(ctx, l.WithPhoto(domain.Photo{Key: key, URL: url}, s.now()), "add_photo", actor)
	if err != nil {
		s.deleteFile(ctx, key)
		return domain.Listing{}, err
	}
	return saved, nil
}

// RemovePhoto drops a photo from the listing, then deletes the stored file
// on a best-effort basis.
func (s *ListingService) RemovePhoto(ctx context.Context, actor domain.Actor, id, key string) (domain.Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	if err := l.AuthorizeOwner(actor, "manage photos of this listing"); err != nil {
		return domain.Listing{}, err
	}
	l, err = l.WithoutPhoto(key, s.now())
	if err != nil {
		return domain.Listing{}, err
	}
	saved, err := s.save(ctx, l, "remove_photo", actor)
	if err != nil {
		return domain.Listing{}, err
	}
	s.deleteFile(ctx, key)
	return saved, nil
}

// deleteFile is fire-and-forget: failures are logged and never returned.
func (s *ListingService) deleteFile(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("photo cleanup failed")
	}
}

func (s *ListingService) save(ctx context.Context, l domain.Listing, event string, actor domain.Actor) (domain.Listing, error) {
	if err := l.CheckInvariants(); err != nil {
		return domain.Listing{}, err
	}
	if err := s.repo.Update(ctx, l); err != nil {
		return domain.Listing{}, fmt.Errorf("updating listing: %w", err)
	}
	l.Version++
	s.publish(ctx, s.event(l, event, actor))
	return l, nil
}

func (s *ListingService) event(l domain.Listing, event string, actor domain.Actor) domain.LifecycleEvent {
	return domain.LifecycleEvent{
		Entity:     "listing",
		EntityID:   l.ID,
		Event:      event,
		Status:     string(l.Moderation),
		ActorID:    actor.ID,
		Recipients: recipients(actor.ID, l.OwnerID),
	}
}
