package gateway

import (
	"context"

	"github.com/neomorfeo/rentwise/internal/domain"
)

var _ domain.PaymentGateway = Cash{}

// Cash records payments made in person. Nothing leaves the system: the
// payment stays pending until an administrator validates it, and a refund
// is handed back at the counter.
type Cash struct{}

func (Cash) InitiatePayment(_ context.Context, req domain.GatewayRequest) (domain.GatewayReceipt, error) {
	return domain.GatewayReceipt{TransactionID: "cash-" + req.PaymentID, Status: domain.GatewayPending}, nil
}

// ValidatePayment refuses to confirm on its own so that a confirmation
// attempt leaves the payment pending for an administrator.
func (Cash) ValidatePayment(context.Context, string) (bool, error) {
	return false, &domain.ConflictError{Entity: "payment", Reason: "cash payments are validated by an administrator"}
}

func (Cash) RefundPayment(context.Context, string, domain.Money) (bool, error) {
	return true, nil
}
