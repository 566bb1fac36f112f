package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// PaymentValidator validates payment transitions.
type PaymentValidator = domain.TransitionValidator[domain.PaymentStatus, domain.PaymentEvent]

// PaymentService orchestrates the payment lifecycle. Validation and refunds
// are applied only after the gateway of the payment's method confirms them.
type PaymentService struct {
	base
	payments  domain.PaymentRepository
	bookings  domain.BookingRepository
	gateways  map[domain.PaymentMethod]domain.PaymentGateway
	validator PaymentValidator
}

// NewPaymentService creates a service with the given adapters.
func NewPaymentService(
	payments domain.PaymentRepository,
	bookings domain.BookingRepository,
	gateways map[domain.PaymentMethod]domain.PaymentGateway,
	validator PaymentValidator,
	publisher domain.EventPublisher,
	opts ...Option,
) *PaymentService {
	return &PaymentService{
		base:      newBase(publisher, opts),
		payments:  payments,
		bookings:  bookings,
		gateways:  gateways,
		validator: validator,
	}
}

func (s *PaymentService) gateway(method domain.PaymentMethod) (domain.PaymentGateway, error) {
	gw, ok := s.gateways[method]
	if !ok {
		return nil, &domain.ValidationError{Field: "method", Reason: fmt.Sprintf("payment method %q is not available", method)}
	}
	return gw, nil
}

// Create records a pending payment for an accepted booking and initiates it
// on the gateway. A gateway failure leaves the payment Failed with the
// gateway error as reason; it is not returned as an error.
func (s *PaymentService) Create(ctx context.Context, payer domain.Actor, req domain.PaymentRequest) (domain.Payment, error) {
	booking, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return domain.Payment{}, err
	}
	id, err := newEntityID("payment")
	if err != nil {
		return domain.Payment{}, err
	}
	p, err := domain.NewPayment(id, booking, payer, req, s.now())
	if err != nil {
		return domain.Payment{}, err
	}
	gw, err := s.gateway(p.Method)
	if err != nil {
		return domain.Payment{}, err
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return domain.Payment{}, fmt.Errorf("creating payment: %w", err)
	}
	s.publish(ctx, s.event(p, domain.PaymentEventCreate, payer))

	receipt, err := gw.InitiatePayment(ctx, domain.GatewayRequest{
		PaymentID: p.ID,
		Amount:    p.Amount,
		Method:    p.Method,
		Metadata: map[string]string{
			"booking_id": p.BookingID,
			"purpose":    string(p.Purpose),
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("payment_id", p.ID).Msg("payment initiation failed")
		return s.fail(ctx, p, domain.SystemActor, err.Error())
	}

	p = p.WithTransactionRef(receipt.TransactionID, s.now())
	switch receipt.Status {
	case domain.GatewaySucceeded:
		return s.apply(ctx, p, domain.SystemActor, domain.PaymentEventValidate, func(p domain.Payment, to domain.PaymentStatus) domain.Payment {
			return p.Validated(to, s.now())
		})
	case domain.GatewayFailed:
		return s.fail(ctx, p, domain.SystemActor, "declined by the payment provider")
	default:
		if err := s.payments.Update(ctx, p); err != nil {
			return domain.Payment{}, fmt.Errorf("updating payment: %w", err)
		}
		p.Version++
		return p, nil
	}
}

// Get returns a payment visible to the actor.
func (s *PaymentService) Get(ctx context.Context, actor domain.Actor, id string) (domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return domain.Payment{}, err
	}
	if err := p.AuthorizeView(actor); err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}

// ListByBooking returns the payments of a booking visible to the actor.
func (s *PaymentService) ListByBooking(ctx context.Context, actor domain.Actor, bookingID string) ([]domain.Payment, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParty(actor) && !actor.IsPrivileged() {
		return nil, &domain.ForbiddenError{ActorID: actor.ID, Action: "view payments of this booking"}
	}
	return s.payments.ListByBooking(ctx, bookingID)
}

// Confirm asks the gateway whether the payment went through and applies
// validate or fail accordingly.
func (s *PaymentService) Confirm(ctx context.Context, actor domain.Actor, id string) (domain.Payment, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return domain.Payment{}, err
	}
	if _, err := s.validator.Apply(ctx, p.Status, domain.PaymentEventValidate); err != nil {
		return domain.Payment{}, err
	}
	if p.TransactionRef == "" {
		return domain.Payment{}, &domain.ConflictError{Entity: "payment", Reason: "payment has no transaction reference"}
	}
	gw, err := s.gateway(p.Method)
	if err != nil {
		return domain.Payment{}, err
	}
	ok, err := gw.ValidatePayment(ctx, p.TransactionRef)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("validating payment with gateway: %w", err)
	}
	if !ok {
		return s.fail(ctx, p, actor, "payment was not confirmed by the provider")
	}
	return s.apply(ctx, p, actor, domain.PaymentEventValidate, func(p domain.Payment, to domain.PaymentStatus) domain.Payment {
		return p.Validated(to, s.now())
	})
}

// Validate marks a pending payment as validated after an out-of-band check
// such as a cash receipt. Only administrators and the platform may do so.
func (s *PaymentService) Validate(ctx context.Context, actor domain.Actor, id string) (domain.Payment, error) {
	if !actor.IsPrivileged() {
		return domain.Payment{}, &domain.ForbiddenError{ActorID: actor.ID, Action: "validate payments"}
	}
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return domain.Payment{}, err
	}
	return s.apply(ctx, p, actor, domain.PaymentEventValidate, func(p domain.Payment, to domain.PaymentStatus) domain.Payment {
		return p.Validated(to, s.now())
	})
}

// Fail marks a pending payment as failed.
func (s *PaymentService) Fail(ctx context.Context, actor domain.Actor, id, reason string) (domain.Payment, error) {
	if !actor.IsPrivileged() {
		return domain.Payment{}, &domain.ForbiddenError{ActorID: actor.ID, Action: "fail payments"}
	}
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return domain.Payment{}, err
	}
	return s.fail(ctx, p, actor, reason)
}

// Refund returns a validated payment, fully when amount is nil. The
// gateway must accept the refund before the transition is applied.
func (s *PaymentService) Refund(ctx context.Context, actor domain.Actor, id string, amount *domain.Money) (domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return domain.Payment{}, err
	}
	if actor.ID != p.OwnerID && !actor.IsPrivileged() {
		return domain.Payment{}, &domain.ForbiddenError{ActorID: actor.ID, Action: "refund this payment"}
	}
	if _, err := s.validator.Apply(ctx, p.Status, domain.PaymentEventRefund); err != nil {
		return domain.Payment{}, err
	}
	refund, err := p.RefundAmount(amount)
	if err != nil {
		return domain.Payment{}, err
	}
	gw, err := s.gateway(p.Method)
	if err != nil {
		return domain.Payment{}, err
	}
	ok, err := gw.RefundPayment(ctx, p.TransactionRef, refund)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("refunding payment with gateway: %w", err)
	}
	if !ok {
		return domain.Payment{}, &domain.ConflictError{Entity: "payment", Reason: "refund was declined by the provider"}
	}
	return s.apply(ctx, p, actor, domain.PaymentEventRefund, func(p domain.Payment, to domain.PaymentStatus) domain.Payment {
		return p.Refunded(to, refund, s.now())
	})
}

func (s *PaymentService) fail(ctx context.Context, p domain.Payment, actor domain.Actor, reason string) (domain.Payment, error) {
	return s.apply(ctx, p, actor, domain.PaymentEventFail, func(p domain.Payment, to domain.PaymentStatus) domain.Payment {
		return p.Failed(to, reason, s.now())
	})
}

func (s *PaymentService) apply(
	ctx context.Context,
	p domain.Payment,
	actor domain.Actor,
	event domain.PaymentEvent,
	mutate func(domain.Payment, domain.PaymentStatus) domain.Payment,
) (domain.Payment, error) {
	to, err := s.validator.Apply(ctx, p.Status, event)
	if err != nil {
		return domain.Payment{}, err
	}
	p = mutate(p, to)
	if err := s.payments.Update(ctx, p); err != nil {
		return domain.Payment{}, fmt.Errorf("updating payment: %w", err)
	}
	p.Version++
	s.publish(ctx, s.event(p, event, actor))
	return p, nil
}

func (s *PaymentService) event(p domain.Payment, event domain.PaymentEvent, actor domain.Actor) domain.LifecycleEvent {
	return domain.LifecycleEvent{
		Entity:     "payment",
		EntityID:   p.ID,
		Event:      string(event),
		Status:     string(p.Status),
		ActorID:    actor.ID,
		Recipients: recipients(actor.ID, p.TenantID, p.OwnerID),
	}
}
