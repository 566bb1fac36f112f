package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/neomorfeo/rentwise/internal/domain"
)

var _ domain.BookingRepository = (*BookingRepository)(nil)

// BookingRepository implements domain.BookingRepository.
type BookingRepository struct {
	db *sql.DB
}

const bookingColumns = `id, listing_id, tenant_id, owner_id, start_date, end_date, occupants,
	total_amount, total_currency, deposit_amount, deposit_currency, message, status,
	rejection_reason, cancelled_by, cancellation_reason, version, created_at, updated_at`

func (r *BookingRepository) Create(ctx context.Context, b domain.Booking) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ListingID, b.TenantID, b.OwnerID,
		b.Period.Start.Format(dateFormat), b.Period.End.Format(dateFormat), b.Occupants,
		amount(b.TotalPrice), b.TotalPrice.Currency(), amount(b.Deposit), b.Deposit.Currency(),
		b.Message, string(b.Status), b.RejectionReason, b.CancelledBy, b.CancellationReason,
		b.Version, formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return &domain.ConflictError{Entity: "booking", Reason: "id " + b.ID + " already exists"}
		case isForeignKeyViolation(err):
			return &domain.NotFoundError{Entity: "listing", ID: b.ListingID}
		}
		return fmt.Errorf("inserting booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return domain.Booking{}, notFound(err, "booking", id)
	}
	return b, nil
}

func (r *BookingRepository) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1 = 1`
	var args []any

	if f.ListingID != "" {
		query += ` AND listing_id = ?`
		args = append(args, f.ListingID)
	}
	if f.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, f.TenantID)
	}
	if f.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, f.OwnerID)
	}
	if f.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*f.Status))
	}
	query += ` ORDER BY created_at DESC, id`
	query, args = paginate(query, args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *BookingRepository) Update(ctx context.Context, b domain.Booking) error {
	return execVersioned(ctx, r.db, "bookings", "booking", b.ID, b.Version,
		`UPDATE bookings SET status = ?, rejection_reason = ?, cancelled_by = ?,
		 cancellation_reason = ?, message = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		string(b.Status), b.RejectionReason, b.CancelledBy,
		b.CancellationReason, b.Message, formatTime(b.UpdatedAt),
	)
}

func scanBooking(s scanner) (domain.Booking, error) {
	var (
		b                                  domain.Booking
		start, end, status                 string
		totalAmt, totalCur, depAmt, depCur string
		createdAt, updatedAt               string
	)
	err := s.Scan(&b.ID, &b.ListingID, &b.TenantID, &b.OwnerID, &start, &end, &b.Occupants,
		&totalAmt, &totalCur, &depAmt, &depCur, &b.Message, &status,
		&b.RejectionReason, &b.CancelledBy, &b.CancellationReason, &b.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Booking{}, err
	}

	b.Status = domain.BookingStatus(status)
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	if b.Period.Start, err = time.Parse(dateFormat, start); err != nil {
		return domain.Booking{}, fmt.Errorf("parsing start date: %w", err)
	}
	if b.Period.End, err = time.Parse(dateFormat, end); err != nil {
		return domain.Booking{}, fmt.Errorf("parsing end date: %w", err)
	}
	if b.TotalPrice, err = money(totalAmt, totalCur); err != nil {
		return domain.Booking{}, err
	}
	if b.Deposit, err = money(depAmt, depCur); err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}
