package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/rentwise/internal/domain"
)

var _ domain.PaymentRepository = (*PaymentRepository)(nil)

// PaymentRepository implements domain.PaymentRepository.
type PaymentRepository struct {
	db *sql.DB
}

const paymentColumns = `id, booking_id, tenant_id, owner_id, purpose, amount, currency, method,
	transaction_ref, status, failure_reason, refunded_amount, validated_at, refunded_at,
	version, created_at, updated_at`

func (r *PaymentRepository) Create(ctx context.Context, p domain.Payment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.BookingID, p.TenantID, p.OwnerID, string(p.Purpose),
		amount(p.Amount), p.Amount.Currency(), string(p.Method),
		p.TransactionRef, string(p.Status), p.FailureReason, amount(p.RefundedAmount),
		nullTime(p.ValidatedAt), nullTime(p.RefundedAt),
		p.Version, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return &domain.ConflictError{Entity: "payment", Reason: "id " + p.ID + " already exists"}
		case isForeignKeyViolation(err):
			return &domain.NotFoundError{Entity: "booking", ID: p.BookingID}
		}
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	if err != nil {
		return domain.Payment{}, notFound(err, "payment", id)
	}
	return p, nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID string) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = ? ORDER BY created_at, id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment row: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Update persists state changes. Amount, currency and method are immutable
// and never rewritten.
func (r *PaymentRepository) Update(ctx context.Context, p domain.Payment) error {
	return execVersioned(ctx, r.db, "payments", "payment", p.ID, p.Version,
		`UPDATE payments SET transaction_ref = ?, status = ?, failure_reason = ?,
		 refunded_amount = ?, validated_at = ?, refunded_at = ?, updated_at = ?,
		 version = version + 1
		 WHERE id = ? AND version = ?`,
		p.TransactionRef, string(p.Status), p.FailureReason,
		amount(p.RefundedAmount), nullTime(p.ValidatedAt), nullTime(p.RefundedAt), formatTime(p.UpdatedAt),
	)
}

func scanPayment(s scanner) (domain.Payment, error) {
	var (
		p                              domain.Payment
		purpose, amt, currency, method string
		status, refunded               string
		validatedAt, refundedAt        sql.NullString
		createdAt, updatedAt           string
	)
	err := s.Scan(&p.ID, &p.BookingID, &p.TenantID, &p.OwnerID, &purpose, &amt, &currency, &method,
		&p.TransactionRef, &status, &p.FailureReason, &refunded, &validatedAt, &refundedAt,
		&p.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Payment{}, err
	}

	p.Purpose = domain.PaymentPurpose(purpose)
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	p.ValidatedAt = timePtr(validatedAt)
	p.RefundedAt = timePtr(refundedAt)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	if p.Amount, err = money(amt, currency); err != nil {
		return domain.Payment{}, err
	}
	if p.RefundedAmount, err = money(refunded, currency); err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}
