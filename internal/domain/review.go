package domain

import (
	"strings"
	"time"
)

const (
	minReviewComment = 10
	maxReviewComment = 1000
)

// Review is a tenant's rating of a completed stay.
type Review struct {
	ID        string
	BookingID string
	ListingID string
	TenantID  string
	OwnerID   string
	Rating    int
	Comment   string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return invalid("rating", "must be between 1 and 5, got %d", rating)
	}
	return nil
}

func validateReviewComment(comment string) (string, error) {
	comment = strings.TrimSpace(comment)
	if n := len([]rune(comment)); n < minReviewComment || n > maxReviewComment {
		return "", invalid("comment", "must be between %d and %d characters", minReviewComment, maxReviewComment)
	}
	return comment, nil
}

// NewReview rates a completed booking on behalf of its tenant.
func NewReview(id string, booking Booking, author Actor, rating int, comment string, now time.Time) (Review, error) {
	if author.ID != booking.TenantID {
		return Review{}, author.forbid("review this booking")
	}
	if booking.Status != BookingCompleted {
		return Review{}, &ConflictError{Entity: "review", Reason: "only completed bookings can be reviewed"}
	}
	if err := validateRating(rating); err != nil {
		return Review{}, err
	}
	comment, err := validateReviewComment(comment)
	if err != nil {
		return Review{}, err
	}
	return Review{
		ID:        id,
		BookingID: booking.ID,
		ListingID: booking.ListingID,
		TenantID:  booking.TenantID,
		OwnerID:   booking.OwnerID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ReviewUpdate holds the fields to change; nil fields are kept.
type ReviewUpdate struct {
	Rating  *int
	Comment *string
}

// Update re-validates and applies each provided field.
func (r Review) Update(actor Actor, u ReviewUpdate, now time.Time) (Review, error) {
	if actor.ID != r.TenantID {
		return Review{}, actor.forbid("edit this review")
	}
	if u.Rating != nil {
		if err := validateRating(*u.Rating); err != nil {
			return Review{}, err
		}
		r.Rating = *u.Rating
	}
	if u.Comment != nil {
		comment, err := validateReviewComment(*u.Comment)
		if err != nil {
			return Review{}, err
		}
		r.Comment = comment
	}
	r.UpdatedAt = now
	return r, nil
}
