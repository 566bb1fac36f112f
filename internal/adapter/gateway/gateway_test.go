package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentwise/internal/adapter/gateway"
	"github.com/neomorfeo/rentwise/internal/domain"
)

func xof(t *testing.T, amount string) domain.Money {
	t.Helper()
	m, err := domain.ParseMoney(amount, "XOF")
	require.NoError(t, err)
	return m
}

func newProvider(t *testing.T, handler http.HandlerFunc) *gateway.Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gateway.NewProvider(gateway.ProviderConfig{
		Name:             "orange_money",
		BaseURL:          srv.URL + "/",
		APIKey:           "secret",
		FailureThreshold: 2,
		Cooldown:         time.Hour,
		Retry: gateway.RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			BackoffMultiplier: 2,
		},
	}, zerolog.Nop())
}

func TestProvider_InitiatePayment(t *testing.T) {
	var got map[string]any
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"transaction_id": "OM-1", "status": "success"})
	})

	receipt, err := p.InitiatePayment(context.Background(), domain.GatewayRequest{
		PaymentID: "p-1",
		Amount:    xof(t, "45000"),
		Method:    domain.PaymentMethodOrangeMoney,
		Metadata:  map[string]string{"booking_id": "b-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "OM-1", receipt.TransactionID)
	assert.Equal(t, domain.GatewaySucceeded, receipt.Status)
	assert.Equal(t, "p-1", got["reference"])
	assert.Equal(t, "45000", got["amount"])
	assert.Equal(t, "XOF", got["currency"])
}

func TestProvider_InitiatePayment_MissingTransaction(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
	})

	_, err := p.InitiatePayment(context.Background(), domain.GatewayRequest{PaymentID: "p-1", Amount: xof(t, "1")})
	assert.ErrorContains(t, err, "no transaction id")
}

func TestProvider_ValidatePayment_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/OM-1", r.URL.Path)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "completed"})
	})

	ok, err := p.ValidatePayment(context.Background(), "OM-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, gateway.StateClosed, p.Breaker().State())
}

func TestProvider_ValidatePayment_PendingIsNotConfirmed(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
	})

	ok, err := p.ValidatePayment(context.Background(), "OM-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProvider_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	p := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown transaction", http.StatusNotFound)
	})

	_, err := p.ValidatePayment(context.Background(), "OM-404")
	assert.ErrorContains(t, err, "unknown transaction")
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, gateway.StateClosed, p.Breaker().State())
}

func TestProvider_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	p := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := p.ValidatePayment(context.Background(), "OM-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrCircuitOpen), "third attempt should hit the open circuit: %v", err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, gateway.StateOpen, p.Breaker().State())

	_, err = p.RefundPayment(context.Background(), "OM-1", xof(t, "100"))
	assert.ErrorIs(t, err, gateway.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestProvider_RefundPayment(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/OM-1/refunds", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2500", body["amount"])
		_ = json.NewEncoder(w).Encode(map[string]bool{"accepted": false})
	})

	ok, err := p.RefundPayment(context.Background(), "OM-1", xof(t, "2500"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProvider_ValidatePayment_StopsOnCancel(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ValidatePayment(ctx, "OM-1")
	assert.Error(t, err)
}

func TestCash(t *testing.T) {
	ctx := context.Background()
	receipt, err := gateway.Cash{}.InitiatePayment(ctx, domain.GatewayRequest{PaymentID: "p-9"})
	require.NoError(t, err)
	assert.Equal(t, "cash-p-9", receipt.TransactionID)
	assert.Equal(t, domain.GatewayPending, receipt.Status)

	_, err = gateway.Cash{}.ValidatePayment(ctx, receipt.TransactionID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	ok, err := gateway.Cash{}.RefundPayment(ctx, receipt.TransactionID, xof(t, "10"))
	require.NoError(t, err)
	assert.True(t, ok)
}
