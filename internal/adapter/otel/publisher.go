package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with OpenTelemetry tracing.
type TracingPublisher struct {
	next   domain.EventPublisher
	tracer trace.Tracer
}

var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) *TracingPublisher {
	return &TracingPublisher{next: next, tracer: tracer()}
}

func (p *TracingPublisher) Publish(ctx context.Context, ev domain.LifecycleEvent) error {
	return tracedErr(ctx, p.tracer, "EventPublisher.Publish", func(ctx context.Context) error {
		return p.next.Publish(ctx, ev)
	},
		attribute.String("event.entity", ev.Entity),
		attribute.String("event.name", ev.Event),
		attribute.String("event.entity_id", ev.EntityID),
		attribute.String("event.status", ev.Status),
		attribute.Int("event.recipients", len(ev.Recipients)),
	)
}

// TracingGateway wraps a domain.PaymentGateway with OpenTelemetry tracing.
type TracingGateway struct {
	next     domain.PaymentGateway
	provider string
	tracer   trace.Tracer
}

var _ domain.PaymentGateway = (*TracingGateway)(nil)

// NewTracingGateway creates a tracing decorator around the gateway of provider.
func NewTracingGateway(provider string, next domain.PaymentGateway) *TracingGateway {
	return &TracingGateway{next: next, provider: provider, tracer: tracer()}
}

func (g *TracingGateway) InitiatePayment(ctx context.Context, req domain.GatewayRequest) (domain.GatewayReceipt, error) {
	return traced(ctx, g.tracer, "PaymentGateway.InitiatePayment", func(ctx context.Context) (domain.GatewayReceipt, error) {
		return g.next.InitiatePayment(ctx, req)
	}, attribute.String("gateway.provider", g.provider), attribute.String("payment.id", req.PaymentID))
}

func (g *TracingGateway) ValidatePayment(ctx context.Context, transactionID string) (bool, error) {
	return traced(ctx, g.tracer, "PaymentGateway.ValidatePayment", func(ctx context.Context) (bool, error) {
		return g.next.ValidatePayment(ctx, transactionID)
	}, attribute.String("gateway.provider", g.provider), attribute.String("gateway.transaction_id", transactionID))
}

func (g *TracingGateway) RefundPayment(ctx context.Context, transactionID string, amount domain.Money) (bool, error) {
	return traced(ctx, g.tracer, "PaymentGateway.RefundPayment", func(ctx context.Context) (bool, error) {
		return g.next.RefundPayment(ctx, transactionID, amount)
	}, attribute.String("gateway.provider", g.provider), attribute.String("gateway.transaction_id", transactionID),
		attribute.String("refund.amount", amount.String()))
}
