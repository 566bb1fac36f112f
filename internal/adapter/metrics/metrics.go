package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// Outcome labels of rentwise_transitions_total.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	httpTotal   *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentwise_transitions_total",
			Help: "Lifecycle transitions by entity, event and outcome",
		}, []string{"entity", "event", "outcome"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentwise_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rentwise_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	m.registry.MustRegister(m.transitions, m.httpTotal, m.httpLatency)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTransition counts one attempted transition.
func (m *Metrics) ObserveTransition(entity, event, outcome string) {
	m.transitions.WithLabelValues(entity, event, outcome).Inc()
}

// Middleware records request counts and latencies.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.httpTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		m.httpLatency.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// validator is the subset of the fsm adapter the decorator needs.
type validator[S ~string, E ~string] interface {
	domain.TransitionValidator[S, E]
	Entity() string
}

// InstrumentedValidator counts the outcome of every Apply call.
type InstrumentedValidator[S ~string, E ~string] struct {
	next    validator[S, E]
	metrics *Metrics
}

// Instrument wraps a validator so that each transition attempt is counted.
func Instrument[S ~string, E ~string](next validator[S, E], m *Metrics) *InstrumentedValidator[S, E] {
	return &InstrumentedValidator[S, E]{next: next, metrics: m}
}

func (v *InstrumentedValidator[S, E]) Apply(ctx context.Context, current S, event E) (S, error) {
	dst, err := v.next.Apply(ctx, current, event)
	outcome := OutcomeApplied
	switch {
	case err == nil:
	case domain.KindOf(err) == domain.KindConflict:
		outcome = OutcomeRejected
	default:
		outcome = OutcomeError
	}
	v.metrics.ObserveTransition(v.next.Entity(), string(event), outcome)
	return dst, err
}
