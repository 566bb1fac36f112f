package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentwise/internal/domain"
)

func TestNewListing(t *testing.T) {
	l, err := domain.NewListing("listing-1", owner.ID, details(t), now)
	require.NoError(t, err)

	assert.Equal(t, domain.ModerationPending, l.Moderation)
	assert.False(t, l.Available)
	assert.Empty(t, l.Photos)
	assert.Equal(t, now, l.CreatedAt)
	assert.NoError(t, l.CheckInvariants())
}

func TestNewListing_Validation(t *testing.T) {
	d := details(t)
	d.Title = "x"
	_, err := domain.NewListing("l", owner.ID, d, now)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	d = details(t)
	d.Category = "castle"
	_, err = domain.NewListing("l", owner.ID, d, now)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	d = details(t)
	d.Price = domain.Money{}
	_, err = domain.NewListing("l", owner.ID, d, now)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestListing_ModeratedKeepsInvariant(t *testing.T) {
	l := bookableListing(t)
	require.True(t, l.Available)

	rejected := l.Moderated(domain.ModerationRejected, " blurry photos ", now)
	assert.False(t, rejected.Available)
	assert.Equal(t, "blurry photos", rejected.RejectionReason)
	assert.NoError(t, rejected.CheckInvariants())

	approved := rejected.Moderated(domain.ModerationApproved, "", now)
	assert.True(t, approved.Available)
	assert.Empty(t, approved.RejectionReason)
}

func TestListing_ApproveWithoutPhoto(t *testing.T) {
	l, err := domain.NewListing("listing-1", owner.ID, details(t), now)
	require.NoError(t, err)

	approved := l.Moderated(domain.ModerationApproved, "", now)
	assert.Equal(t, domain.ModerationApproved, approved.Moderation)
	assert.False(t, approved.Available)
	assert.NoError(t, approved.CheckInvariants())

	approved.Available = true
	assert.Equal(t, domain.KindConflict, domain.KindOf(approved.CheckInvariants()))
}

func TestListing_Publish(t *testing.T) {
	l, err := domain.NewListing("listing-1", owner.ID, details(t), now)
	require.NoError(t, err)

	_, err = l.Publish(owner, now)
	assert.EqualError(t, err, "listing publish: only approved listings can be published")

	approved := l.Moderated(domain.ModerationApproved, "", now)
	approved, err = approved.Unpublish(owner, now)
	require.NoError(t, err)

	_, err = approved.Publish(owner, now)
	assert.EqualError(t, err, "listing publish: a listing needs at least one photo to be published")

	withPhoto := approved.WithPhoto(domain.Photo{Key: "k"}, now)
	_, err = withPhoto.Publish(tenant, now)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	published, err := withPhoto.Publish(owner, now)
	require.NoError(t, err)
	assert.True(t, published.Available)
	assert.NoError(t, published.CheckInvariants())
}

func TestListing_Unpublish(t *testing.T) {
	l := bookableListing(t)

	_, err := l.Unpublish(tenant, now)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	l, err = l.Unpublish(owner, now)
	require.NoError(t, err)
	assert.False(t, l.Available)
	assert.Equal(t, domain.ModerationApproved, l.Moderation)
}

func TestListing_WithoutPhoto(t *testing.T) {
	l := bookableListing(t).WithPhoto(domain.Photo{Key: "p2"}, now)

	l, err := l.WithoutPhoto("p1", now)
	require.NoError(t, err)
	assert.Equal(t, []domain.Photo{{Key: "p2"}}, l.Photos)

	_, err = l.WithoutPhoto("p2", now)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err), "last photo of a published listing")

	_, err = l.WithoutPhoto("missing", now)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	hidden, err := l.Unpublish(owner, now)
	require.NoError(t, err)
	hidden, err = hidden.WithoutPhoto("p2", now)
	require.NoError(t, err)
	assert.Empty(t, hidden.Photos)
}

func TestListing_WithPhotoDoesNotAlias(t *testing.T) {
	l := bookableListing(t)
	a := l.WithPhoto(domain.Photo{Key: "a"}, now)
	b := l.WithPhoto(domain.Photo{Key: "b"}, now)

	assert.Equal(t, "a", a.Photos[1].Key)
	assert.Equal(t, "b", b.Photos[1].Key)
	assert.Len(t, l.Photos, 1)
}

func TestAuthorizeModerator(t *testing.T) {
	assert.NoError(t, domain.AuthorizeModerator(admin))
	assert.Equal(t, domain.KindForbidden, domain.KindOf(domain.AuthorizeModerator(owner)))
}
