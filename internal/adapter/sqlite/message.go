package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/rentwise/internal/domain"
)

var (
	_ domain.MessageRepository = (*MessageRepository)(nil)
	_ domain.ReviewRepository  = (*ReviewRepository)(nil)
)

// MessageRepository implements domain.MessageRepository.
type MessageRepository struct {
	db *sql.DB
}

const messageColumns = `id, booking_id, sender_id, recipient_id, content, sent_at, read, read_at, edited_at, version`

func (r *MessageRepository) Create(ctx context.Context, m domain.Message) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.BookingID, m.SenderID, m.RecipientID, m.Content, formatTime(m.SentAt),
		m.Read, nullTime(m.ReadAt), nullTime(m.EditedAt), m.Version,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return &domain.ConflictError{Entity: "message", Reason: "id " + m.ID + " already exists"}
		case isForeignKeyViolation(err):
			return &domain.NotFoundError{Entity: "booking", ID: m.BookingID}
		}
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (domain.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id))
	if err != nil {
		return domain.Message{}, notFound(err, "message", id)
	}
	return m, nil
}

func (r *MessageRepository) ListByBooking(ctx context.Context, bookingID string) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE booking_id = ? ORDER BY sent_at, id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) Update(ctx context.Context, m domain.Message) error {
	return execVersioned(ctx, r.db, "messages", "message", m.ID, m.Version,
		`UPDATE messages SET content = ?, read = ?, read_at = ?, edited_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		m.Content, m.Read, nullTime(m.ReadAt), nullTime(m.EditedAt),
	)
}

func scanMessage(s scanner) (domain.Message, error) {
	var (
		m                domain.Message
		sentAt           string
		readAt, editedAt sql.NullString
	)
	err := s.Scan(&m.ID, &m.BookingID, &m.SenderID, &m.RecipientID, &m.Content, &sentAt,
		&m.Read, &readAt, &editedAt, &m.Version)
	if err != nil {
		return domain.Message{}, err
	}
	m.SentAt = parseTime(sentAt)
	m.ReadAt = timePtr(readAt)
	m.EditedAt = timePtr(editedAt)
	return m, nil
}

// ReviewRepository implements domain.ReviewRepository.
type ReviewRepository struct {
	db *sql.DB
}

const reviewColumns = `id, booking_id, listing_id, tenant_id, owner_id, rating, comment, version, created_at, updated_at`

func (r *ReviewRepository) Create(ctx context.Context, rv domain.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rv.ID, rv.BookingID, rv.ListingID, rv.TenantID, rv.OwnerID, rv.Rating, rv.Comment,
		rv.Version, formatTime(rv.CreatedAt), formatTime(rv.UpdatedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return &domain.ConflictError{Entity: "review", Reason: "booking " + rv.BookingID + " is already reviewed"}
		case isForeignKeyViolation(err):
			return &domain.NotFoundError{Entity: "booking", ID: rv.BookingID}
		}
		return fmt.Errorf("inserting review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (domain.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id))
	if err != nil {
		return domain.Review{}, notFound(err, "review", id)
	}
	return rv, nil
}

func (r *ReviewRepository) GetByBooking(ctx context.Context, bookingID string) (domain.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE booking_id = ?`, bookingID))
	if err != nil {
		return domain.Review{}, notFound(err, "review", bookingID)
	}
	return rv, nil
}

func (r *ReviewRepository) ListByListing(ctx context.Context, listingID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE listing_id = ? ORDER BY created_at DESC, id`, listingID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

func (r *ReviewRepository) Update(ctx context.Context, rv domain.Review) error {
	return execVersioned(ctx, r.db, "reviews", "review", rv.ID, rv.Version,
		`UPDATE reviews SET rating = ?, comment = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		rv.Rating, rv.Comment, formatTime(rv.UpdatedAt),
	)
}

func scanReview(s scanner) (domain.Review, error) {
	var (
		rv                   domain.Review
		createdAt, updatedAt string
	)
	err := s.Scan(&rv.ID, &rv.BookingID, &rv.ListingID, &rv.TenantID, &rv.OwnerID, &rv.Rating, &rv.Comment,
		&rv.Version, &createdAt, &updatedAt)
	if err != nil {
		return domain.Review{}, err
	}
	rv.CreatedAt = parseTime(createdAt)
	rv.UpdatedAt = parseTime(updatedAt)
	return rv, nil
}
