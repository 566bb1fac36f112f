package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/neomorfeo/rentwise/internal/domain"
)

var (
	_ domain.ListingRepository = (*ListingRepository)(nil)
	_ domain.ViewCounter       = (*ListingRepository)(nil)
)

// ListingRepository implements domain.ListingRepository and, through the
// view_count column, domain.ViewCounter.
type ListingRepository struct {
	db *sql.DB
}

const listingColumns = `id, owner_id, category, title, description,
	price_amount, price_currency, deposit_amount, deposit_currency,
	street, district, city, region, country, postal_code,
	capacity, rooms, surface_m2, photos, moderation, rejection_reason,
	available, view_count, version, created_at, updated_at`

type photoRow struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func encodePhotos(photos []domain.Photo) (string, error) {
	rows := make([]photoRow, 0, len(photos))
	for _, p := range photos {
		rows = append(rows, photoRow{Key: p.Key, URL: p.URL})
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encoding photos: %w", err)
	}
	return string(b), nil
}

func (r *ListingRepository) Create(ctx context.Context, l domain.Listing) error {
	photos, err := encodePhotos(l.Photos)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.OwnerID, string(l.Category), l.Title, l.Description,
		amount(l.Price), l.Price.Currency(), amount(l.Deposit), l.Deposit.Currency(),
		l.Address.Street, l.Address.District, l.Address.City, l.Address.Region, l.Address.Country, l.Address.PostalCode,
		l.Capacity, l.Rooms, l.SurfaceM2, photos, string(l.Moderation), l.RejectionReason,
		l.Available, l.ViewCount, l.Version, formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Entity: "listing", Reason: "id " + l.ID + " already exists"}
		}
		return fmt.Errorf("inserting listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	l, err := scanListing(r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id))
	if err != nil {
		return domain.Listing{}, notFound(err, "listing", id)
	}
	return l, nil
}

func (r *ListingRepository) List(ctx context.Context, f domain.ListingFilter) ([]domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE 1 = 1`
	var args []any

	if f.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, f.OwnerID)
	}
	if f.Category != nil {
		query += ` AND category = ?`
		args = append(args, string(*f.Category))
	}
	if f.City != "" {
		query += ` AND city = ? COLLATE NOCASE`
		args = append(args, f.City)
	}
	if f.Moderation != nil {
		query += ` AND moderation = ?`
		args = append(args, string(*f.Moderation))
	}
	if f.AvailableOnly {
		query += ` AND available = 1`
	}
	query += ` ORDER BY created_at DESC, id`
	query, args = paginate(query, args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing listings: %w", err)
	}
	defer rows.Close()

	listings := make([]domain.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning listing row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Update replaces the listing. The view counter is owned by
// IncrementViews and is never overwritten here.
func (r *ListingRepository) Update(ctx context.Context, l domain.Listing) error {
	photos, err := encodePhotos(l.Photos)
	if err != nil {
		return err
	}
	return execVersioned(ctx, r.db, "listings", "listing", l.ID, l.Version,
		`UPDATE listings SET category = ?, title = ?, description = ?,
		 price_amount = ?, price_currency = ?, deposit_amount = ?, deposit_currency = ?,
		 street = ?, district = ?, city = ?, region = ?, country = ?, postal_code = ?,
		 capacity = ?, rooms = ?, surface_m2 = ?, photos = ?, moderation = ?,
		 rejection_reason = ?, available = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		string(l.Category), l.Title, l.Description,
		amount(l.Price), l.Price.Currency(), amount(l.Deposit), l.Deposit.Currency(),
		l.Address.Street, l.Address.District, l.Address.City, l.Address.Region, l.Address.Country, l.Address.PostalCode,
		l.Capacity, l.Rooms, l.SurfaceM2, photos, string(l.Moderation),
		l.RejectionReason, l.Available, formatTime(l.UpdatedAt),
	)
}

// IncrementViews bumps the stored counter without touching the version.
func (r *ListingRepository) IncrementViews(ctx context.Context, listingID string) (int64, error) {
	var views int64
	err := r.db.QueryRowContext(ctx,
		`UPDATE listings SET view_count = view_count + 1 WHERE id = ? RETURNING view_count`,
		listingID,
	).Scan(&views)
	if err != nil {
		return 0, notFound(err, "listing", listingID)
	}
	return views, nil
}

func (r *ListingRepository) Views(ctx context.Context, listingID string) (int64, error) {
	var views int64
	err := r.db.QueryRowContext(ctx, `SELECT view_count FROM listings WHERE id = ?`, listingID).Scan(&views)
	if err != nil {
		return 0, notFound(err, "listing", listingID)
	}
	return views, nil
}

func scanListing(s scanner) (domain.Listing, error) {
	var (
		l                                  domain.Listing
		category, moderation, photos       string
		priceAmt, priceCur, depAmt, depCur string
		createdAt, updatedAt               string
	)
	err := s.Scan(&l.ID, &l.OwnerID, &category, &l.Title, &l.Description,
		&priceAmt, &priceCur, &depAmt, &depCur,
		&l.Address.Street, &l.Address.District, &l.Address.City, &l.Address.Region, &l.Address.Country, &l.Address.PostalCode,
		&l.Capacity, &l.Rooms, &l.SurfaceM2, &photos, &moderation, &l.RejectionReason,
		&l.Available, &l.ViewCount, &l.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Listing{}, err
	}

	l.Category = domain.Category(category)
	l.Moderation = domain.ModerationStatus(moderation)
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	if l.Price, err = money(priceAmt, priceCur); err != nil {
		return domain.Listing{}, err
	}
	if l.Deposit, err = money(depAmt, depCur); err != nil {
		return domain.Listing{}, err
	}

	var rows []photoRow
	if err := json.Unmarshal([]byte(photos), &rows); err != nil {
		return domain.Listing{}, fmt.Errorf("decoding photos: %w", err)
	}
	for _, p := range rows {
		l.Photos = append(l.Photos, domain.Photo{Key: p.Key, URL: p.URL})
	}
	return l, nil
}
