package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neomorfeo/rentwise/internal/domain"
)

var _ domain.DisputeRepository = (*DisputeRepository)(nil)

// DisputeRepository implements domain.DisputeRepository. The comment
// thread is stored as a JSON array on the dispute row.
type DisputeRepository struct {
	db *sql.DB
}

const disputeColumns = `id, booking_id, tenant_id, owner_id, opened_by, category, description,
	status, resolution, comments, resolved_at, version, created_at, updated_at`

type commentRow struct {
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func encodeComments(comments []domain.Comment) (string, error) {
	rows := make([]commentRow, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, commentRow{AuthorID: c.AuthorID, Text: c.Text, CreatedAt: c.CreatedAt.UTC()})
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encoding comments: %w", err)
	}
	return string(b), nil
}

func (r *DisputeRepository) Create(ctx context.Context, d domain.Dispute) error {
	comments, err := encodeComments(d.Comments)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO disputes (`+disputeColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, nullString(d.BookingID), d.TenantID, d.OwnerID, d.OpenedBy, string(d.Category), d.Description,
		string(d.Status), d.Resolution, comments, nullTime(d.ResolvedAt),
		d.Version, formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return &domain.ConflictError{Entity: "dispute", Reason: "id " + d.ID + " already exists"}
		case isForeignKeyViolation(err):
			return &domain.NotFoundError{Entity: "booking", ID: d.BookingID}
		}
		return fmt.Errorf("inserting dispute: %w", err)
	}
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id string) (domain.Dispute, error) {
	d, err := scanDispute(r.db.QueryRowContext(ctx,
		`SELECT `+disputeColumns+` FROM disputes WHERE id = ?`, id))
	if err != nil {
		return domain.Dispute{}, notFound(err, "dispute", id)
	}
	return d, nil
}

func (r *DisputeRepository) List(ctx context.Context, f domain.DisputeFilter) ([]domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE 1 = 1`
	var args []any

	if f.PartyID != "" {
		query += ` AND (tenant_id = ? OR owner_id = ?)`
		args = append(args, f.PartyID, f.PartyID)
	}
	if f.BookingID != "" {
		query += ` AND booking_id = ?`
		args = append(args, f.BookingID)
	}
	if f.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*f.Status))
	}
	query += ` ORDER BY created_at DESC, id`
	query, args = paginate(query, args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing disputes: %w", err)
	}
	defer rows.Close()

	disputes := make([]domain.Dispute, 0)
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning dispute row: %w", err)
		}
		disputes = append(disputes, d)
	}
	return disputes, rows.Err()
}

func (r *DisputeRepository) Update(ctx context.Context, d domain.Dispute) error {
	comments, err := encodeComments(d.Comments)
	if err != nil {
		return err
	}
	return execVersioned(ctx, r.db, "disputes", "dispute", d.ID, d.Version,
		`UPDATE disputes SET status = ?, resolution = ?, comments = ?, resolved_at = ?,
		 updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		string(d.Status), d.Resolution, comments, nullTime(d.ResolvedAt), formatTime(d.UpdatedAt),
	)
}

func scanDispute(s scanner) (domain.Dispute, error) {
	var (
		d                          domain.Dispute
		bookingID, resolvedAt      sql.NullString
		category, status, comments string
		createdAt, updatedAt       string
	)
	err := s.Scan(&d.ID, &bookingID, &d.TenantID, &d.OwnerID, &d.OpenedBy, &category, &d.Description,
		&status, &d.Resolution, &comments, &resolvedAt, &d.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Dispute{}, err
	}

	d.BookingID = bookingID.String
	d.Category = domain.DisputeCategory(category)
	d.Status = domain.DisputeStatus(status)
	d.ResolvedAt = timePtr(resolvedAt)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)

	var rows []commentRow
	if err := json.Unmarshal([]byte(comments), &rows); err != nil {
		return domain.Dispute{}, fmt.Errorf("decoding comments: %w", err)
	}
	for _, c := range rows {
		d.Comments = append(d.Comments, domain.Comment{AuthorID: c.AuthorID, Text: c.Text, CreatedAt: c.CreatedAt})
	}
	return d, nil
}
