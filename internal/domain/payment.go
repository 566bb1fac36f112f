package domain

import (
	"strings"
	"time"
)

// PaymentStatus represents the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentValidated PaymentStatus = "validated"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentEvent triggers a payment transition.
type PaymentEvent string

const (
	PaymentEventCreate   PaymentEvent = "create"
	PaymentEventValidate PaymentEvent = "validate"
	PaymentEventFail     PaymentEvent = "fail"
	PaymentEventRefund   PaymentEvent = "refund"
)

// PaymentMachine is monotonic: failed and refunded payments are final.
var PaymentMachine = Machine[PaymentStatus, PaymentEvent]{
	Entity: "payment",
	Transitions: []Transition[PaymentStatus, PaymentEvent]{
		{Event: PaymentEventValidate, Src: PaymentPending, Dst: PaymentValidated},
		{Event: PaymentEventFail, Src: PaymentPending, Dst: PaymentFailed},
		{Event: PaymentEventRefund, Src: PaymentValidated, Dst: PaymentRefunded},
	},
	Preconditions: map[PaymentEvent]string{
		PaymentEventValidate: "only pending payments can be validated",
		PaymentEventFail:     "only pending payments can be failed",
		PaymentEventRefund:   "only validated payments can be refunded",
	},
}

// PaymentMethod selects the external provider that moves the money.
type PaymentMethod string

const (
	PaymentMethodOrangeMoney PaymentMethod = "orange_money"
	PaymentMethodMTNMoMo     PaymentMethod = "mtn_momo"
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodCash        PaymentMethod = "cash"
)

// PaymentMethods lists every supported method.
var PaymentMethods = []PaymentMethod{
	PaymentMethodOrangeMoney,
	PaymentMethodMTNMoMo,
	PaymentMethodCard,
	PaymentMethodCash,
}

// Valid reports whether m is a supported method.
func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// PaymentPurpose tells rent and deposit payments of one booking apart.
type PaymentPurpose string

const (
	PaymentPurposeRent    PaymentPurpose = "rent"
	PaymentPurposeDeposit PaymentPurpose = "deposit"
)

// Valid reports whether p is a known purpose.
func (p PaymentPurpose) Valid() bool {
	return p == PaymentPurposeRent || p == PaymentPurposeDeposit
}

// Payment is one monetary transaction tied to a booking. Its amount never
// changes after creation.
type Payment struct {
	ID             string
	BookingID      string
	TenantID       string
	OwnerID        string
	Purpose        PaymentPurpose
	Amount         Money
	Method         PaymentMethod
	TransactionRef string
	Status         PaymentStatus
	FailureReason  string
	RefundedAmount Money
	ValidatedAt    *time.Time
	RefundedAt     *time.Time
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PaymentRequest carries the tenant's input for a new payment.
type PaymentRequest struct {
	BookingID string
	Purpose   PaymentPurpose
	Amount    Money
	Method    PaymentMethod
}

// NewPayment creates a pending payment for an accepted booking.
func NewPayment(id string, booking Booking, payer Actor, req PaymentRequest, now time.Time) (Payment, error) {
	if payer.ID != booking.TenantID {
		return Payment{}, payer.forbid("pay for this booking")
	}
	if booking.Status != BookingAccepted {
		return Payment{}, &ConflictError{Entity: "payment", Reason: "payments require an accepted booking"}
	}
	if !req.Method.Valid() {
		return Payment{}, invalid("method", "unsupported payment method %q", req.Method)
	}
	if !req.Purpose.Valid() {
		return Payment{}, invalid("purpose", "unknown payment purpose %q", req.Purpose)
	}
	if req.Amount.Currency() == "" || req.Amount.IsZero() {
		return Payment{}, invalid("amount", "must be positive")
	}
	if req.Amount.Currency() != booking.TotalPrice.Currency() {
		return Payment{}, invalid("amount", "currency %s differs from booking currency %s", req.Amount.Currency(), booking.TotalPrice.Currency())
	}
	return Payment{
		ID:        id,
		BookingID: booking.ID,
		TenantID:  booking.TenantID,
		OwnerID:   booking.OwnerID,
		Purpose:   req.Purpose,
		Amount:    req.Amount,
		Method:    req.Method,
		Status:    PaymentPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AuthorizeView fails unless actor is a party of the payment or an administrator.
func (p Payment) AuthorizeView(actor Actor) error {
	if actor.ID != p.TenantID && actor.ID != p.OwnerID && !actor.IsPrivileged() {
		return actor.forbid("access this payment")
	}
	return nil
}

// WithTransactionRef records the reference assigned by the gateway.
func (p Payment) WithTransactionRef(ref string, now time.Time) Payment {
	p.TransactionRef = ref
	p.UpdatedAt = now
	return p
}

// Validated applies a validated "validate" transition.
func (p Payment) Validated(to PaymentStatus, now time.Time) Payment {
	p.Status = to
	p.ValidatedAt = &now
	p.UpdatedAt = now
	return p
}

// Failed applies a validated "fail" transition.
func (p Payment) Failed(to PaymentStatus, reason string, now time.Time) Payment {
	p.Status = to
	p.FailureReason = strings.TrimSpace(reason)
	p.UpdatedAt = now
	return p
}

// RefundAmount resolves the amount to refund: the full amount when
// requested is nil, otherwise a positive amount not above the payment.
func (p Payment) RefundAmount(requested *Money) (Money, error) {
	if requested == nil {
		return p.Amount, nil
	}
	if requested.IsZero() {
		return Money{}, invalid("refund_amount", "must be positive")
	}
	above, err := requested.GreaterThan(p.Amount)
	if err != nil {
		return Money{}, err
	}
	if above {
		return Money{}, invalid("refund_amount", "%s exceeds the payment amount %s", requested, p.Amount)
	}
	return *requested, nil
}

// Refunded applies a validated "refund" transition.
func (p Payment) Refunded(to PaymentStatus, amount Money, now time.Time) Payment {
	p.Status = to
	p.RefundedAmount = amount
	p.RefundedAt = &now
	p.UpdatedAt = now
	return p
}
