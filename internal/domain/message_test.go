package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentwise/internal/domain"
)

func TestNewMessage(t *testing.T) {
	b := acceptedBooking(t)
	m, err := domain.NewMessage("m-1", b, tenant, "Is parking available?", now)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, m.RecipientID)
	assert.False(t, m.Read)

	_, err = domain.NewMessage("m-2", b, domain.Actor{ID: "x"}, "hello", now)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = domain.NewMessage("m-3", b, tenant, "  ", now)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	_, err = domain.NewMessage("m-4", b, tenant, strings.Repeat("a", 5001), now)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	_, err = domain.NewMessage("m-5", b, tenant, strings.Repeat("é", 5000), now)
	assert.NoError(t, err, "length counts characters, not bytes")
}

func TestMessage_MarkReadIsIdempotent(t *testing.T) {
	m, err := domain.NewMessage("m-1", acceptedBooking(t), tenant, "hello", now)
	require.NoError(t, err)

	_, err = m.MarkRead(tenant, now)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	first, err := m.MarkRead(owner, now)
	require.NoError(t, err)
	second, err := first.MarkRead(owner, now.Add(time.Hour))
	require.NoError(t, err)

	assert.True(t, second.Read)
	assert.Equal(t, now, *second.ReadAt)
}

func TestMessage_Edit(t *testing.T) {
	m, err := domain.NewMessage("m-1", acceptedBooking(t), tenant, "hello", now)
	require.NoError(t, err)

	_, err = m.Edit(owner, "changed", now)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = m.Edit(tenant, "", now)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	edited, err := m.Edit(tenant, "hello again", now)
	require.NoError(t, err)
	assert.Equal(t, "hello again", edited.Content)
	assert.NotNil(t, edited.EditedAt)
}
