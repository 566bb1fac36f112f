package app_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentwise/internal/domain"
)

func bytesReader(s string) io.Reader {
	return bytes.NewReader([]byte(s))
}

func TestListing_CreateRequiresOwnerRole(t *testing.T) {
	h := newHarness(t)
	_, err := h.Listings.Create(context.Background(), tenant, listingDetails(t))
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestListing_ApproveTwice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l, err := h.Listings.Create(ctx, owner, listingDetails(t))
	require.NoError(t, err)
	assert.False(t, l.Available)

	l, err = h.Listings.Approve(ctx, admin, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationApproved, l.Moderation)
	assert.False(t, l.Available, "a listing without photos stays hidden after approval")
	assert.NoError(t, l.CheckInvariants())

	_, err = h.Listings.Approve(ctx, admin, l.ID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.EqualError(t, err, "listing approve: listing is already approved")

	stored, err := h.Listings.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ModerationApproved, stored.Moderation)
	assert.Equal(t, int64(1), stored.Version)
}

func TestListing_ModerationIsAdminOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l, err := h.Listings.Create(ctx, owner, listingDetails(t))
	require.NoError(t, err)

	_, err = h.Listings.Approve(ctx, owner, l.ID)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestListing_RejectWithdrawsAndReapproves(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.approvedListing(t)

	l, err := h.Listings.Reject(ctx, admin, l.ID, "misleading photos")
	require.NoError(t, err)
	assert.False(t, l.Available)
	assert.Equal(t, "misleading photos", l.RejectionReason)

	_, err = h.Listings.Reject(ctx, admin, l.ID, "again")
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = h.Listings.Publish(ctx, owner, l.ID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	l, err = h.Listings.Approve(ctx, admin, l.ID)
	require.NoError(t, err)
	assert.True(t, l.Available)
	assert.Empty(t, l.RejectionReason)
}

func TestListing_PublishRequiresPhoto(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l, err := h.Listings.Create(ctx, owner, listingDetails(t))
	require.NoError(t, err)
	l, err = h.Listings.Approve(ctx, admin, l.ID)
	require.NoError(t, err)
	l, err = h.Listings.Unpublish(ctx, owner, l.ID)
	require.NoError(t, err)

	_, err = h.Listings.Publish(ctx, owner, l.ID)
	assert.EqualError(t, err, "listing publish: a listing needs at least one photo to be published")

	l, err = h.Listings.AddPhoto(ctx, owner, l.ID, "image/png", bytesReader("png"))
	require.NoError(t, err)
	l, err = h.Listings.Publish(ctx, owner, l.ID)
	require.NoError(t, err)
	assert.True(t, l.Available)
	assert.NoError(t, l.CheckInvariants())

	_, err = h.Listings.Publish(ctx, tenant, l.ID)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
}

func TestListing_RemovePhotoCleanupIsBestEffort(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.approvedListing(t)
	l, err := h.Listings.AddPhoto(ctx, owner, l.ID, "image/jpeg", bytesReader("second"))
	require.NoError(t, err)
	require.Len(t, l.Photos, 2)
	key := l.Photos[0].Key
	require.True(t, h.storage.Has(key))

	h.storage.FailDelete = true
	l, err = h.Listings.RemovePhoto(ctx, owner, l.ID, key)
	require.NoError(t, err, "storage failures never block the change")
	assert.Len(t, l.Photos, 1)

	_, err = h.Listings.RemovePhoto(ctx, owner, l.ID, l.Photos[0].Key)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err), "last photo of a published listing")

	_, err = h.Listings.RemovePhoto(ctx, owner, l.ID, "nope")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestListing_ViewCounting(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.approvedListing(t)

	for range 3 {
		_, err := h.Listings.View(ctx, l.ID)
		require.NoError(t, err)
	}
	got, err := h.Listings.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ViewCount)
	assert.Equal(t, l.Version, got.Version, "views do not touch the listing version")
}

func TestListing_StaleUpdateConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	l := h.approvedListing(t)

	stale := l
	stale.Title = "Changed behind our back"
	stale.Version = 0
	err := h.listings.Update(ctx, stale)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestListing_EventsCarryOwnerAsRecipient(t *testing.T) {
	h := newHarness(t)
	l := h.approvedListing(t)

	ev := h.pub.last()
	assert.Equal(t, "listing", ev.Entity)
	assert.Equal(t, l.ID, ev.EntityID)
	assert.Equal(t, "approve", ev.Event)
	assert.Equal(t, "approved", ev.Status)
	assert.Equal(t, []string{owner.ID}, ev.Recipients)
	assert.Equal(t, now, ev.OccurredAt)
}
