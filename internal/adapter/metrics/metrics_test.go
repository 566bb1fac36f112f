package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/rentwise/internal/adapter/fsm"
	"github.com/neomorfeo/rentwise/internal/adapter/metrics"
	"github.com/neomorfeo/rentwise/internal/domain"
)

func TestInstrumentedValidator_CountsOutcomes(t *testing.T) {
	m := metrics.New()
	v := metrics.Instrument(fsm.New(domain.BookingMachine), m)
	ctx := context.Background()

	_, err := v.Apply(ctx, domain.BookingPending, domain.BookingEventAccept)
	require.NoError(t, err)
	_, err = v.Apply(ctx, domain.BookingCompleted, domain.BookingEventAccept)
	require.Error(t, err)

	expected := `
# HELP rentwise_transitions_total Lifecycle transitions by entity, event and outcome
# TYPE rentwise_transitions_total counter
rentwise_transitions_total{entity="booking",event="accept",outcome="applied"} 1
rentwise_transitions_total{entity="booking",event="accept",outcome="rejected"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "rentwise_transitions_total"))
}

func TestMiddleware_ServesMetrics(t *testing.T) {
	m := metrics.New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `rentwise_http_requests_total{method="GET",status="418"} 1`)
}
