package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentwise/internal/domain"
)

func depositRequest(t *testing.T) domain.PaymentRequest {
	t.Helper()
	return domain.PaymentRequest{
		BookingID: "booking-1",
		Purpose:   domain.PaymentPurposeDeposit,
		Amount:    xof(t, "50000"),
		Method:    domain.PaymentMethodOrangeMoney,
	}
}

func TestNewPayment(t *testing.T) {
	b := acceptedBooking(t)
	p, err := domain.NewPayment("payment-1", b, tenant, depositRequest(t), now)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentPending, p.Status)
	assert.Equal(t, b.OwnerID, p.OwnerID)
	assert.Empty(t, p.TransactionRef)
	assert.Nil(t, p.ValidatedAt)
}

func TestNewPayment_RequiresAcceptedBooking(t *testing.T) {
	b := acceptedBooking(t)
	b.Status = domain.BookingPending

	_, err := domain.NewPayment("p", b, tenant, depositRequest(t), now)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestNewPayment_Validation(t *testing.T) {
	b := acceptedBooking(t)

	_, err := domain.NewPayment("p", b, owner, depositRequest(t), now)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	req := depositRequest(t)
	req.Method = "bitcoin"
	_, err = domain.NewPayment("p", b, tenant, req, now)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	req = depositRequest(t)
	req.Amount = xof(t, "0")
	_, err = domain.NewPayment("p", b, tenant, req, now)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	req = depositRequest(t)
	req.Amount, err = domain.ParseMoney("10", "EUR")
	require.NoError(t, err)
	_, err = domain.NewPayment("p", b, tenant, req, now)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestPayment_RefundAmount(t *testing.T) {
	p, err := domain.NewPayment("p", acceptedBooking(t), tenant, depositRequest(t), now)
	require.NoError(t, err)

	full, err := p.RefundAmount(nil)
	require.NoError(t, err)
	assert.True(t, full.Equal(p.Amount))

	part := xof(t, "20000")
	got, err := p.RefundAmount(&part)
	require.NoError(t, err)
	assert.True(t, got.Equal(part))

	tooMuch := xof(t, "60000")
	_, err = p.RefundAmount(&tooMuch)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	zero := xof(t, "0")
	_, err = p.RefundAmount(&zero)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestPayment_TransitionsKeepAmount(t *testing.T) {
	p, err := domain.NewPayment("p", acceptedBooking(t), tenant, depositRequest(t), now)
	require.NoError(t, err)
	amount := p.Amount

	p = p.Validated(domain.PaymentValidated, now)
	require.NotNil(t, p.ValidatedAt)
	p = p.Refunded(domain.PaymentRefunded, xof(t, "10000"), now)

	assert.True(t, p.Amount.Equal(amount))
	assert.True(t, p.RefundedAmount.Equal(xof(t, "10000")))
	assert.NotNil(t, p.RefundedAt)
}

func TestPaymentMethod_Valid(t *testing.T) {
	for _, m := range domain.PaymentMethods {
		assert.True(t, m.Valid())
	}
	assert.False(t, domain.PaymentMethod("paypal").Valid())
}
