package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neomorfeo/rentwise/internal/adapter/sqlite"
	"github.com/neomorfeo/rentwise/internal/domain"
)

var now = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func xof(t *testing.T, amount string) domain.Money {
	t.Helper()
	m, err := domain.ParseMoney(amount, "XOF")
	if err != nil {
		t.Fatalf("parsing money: %v", err)
	}
	return m
}

func mustCreateListing(t *testing.T, store *sqlite.Store, id string) domain.Listing {
	t.Helper()
	l := domain.Listing{
		ID:         id,
		OwnerID:    "owner-1",
		Category:   domain.CategoryApartment,
		Title:      "Studio near campus",
		Price:      xof(t, "15000"),
		Deposit:    xof(t, "30000"),
		Address:    domain.Address{Street: "12 Rue des Jardins", City: "Abidjan", Country: "CI"},
		Capacity:   2,
		Moderation: domain.ModerationApproved,
		Available:  true,
		Photos:     []domain.Photo{{Key: "listings/" + id + "/p1", URL: "https://cdn/p1"}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.Listings().Create(context.Background(), l); err != nil {
		t.Fatalf("creating listing: %v", err)
	}
	return l
}

func mustCreateBooking(t *testing.T, store *sqlite.Store, id, listingID string, status domain.BookingStatus) domain.Booking {
	t.Helper()
	b := domain.Booking{
		ID:        id,
		ListingID: listingID,
		TenantID:  "tenant-1",
		OwnerID:   "owner-1",
		Period: domain.Period{
			Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		},
		Occupants:  1,
		TotalPrice: xof(t, "45000"),
		Deposit:    xof(t, "30000"),
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.Bookings().Create(context.Background(), b); err != nil {
		t.Fatalf("creating booking: %v", err)
	}
	return b
}

func TestNew_RunsMigrations(t *testing.T) {
	store := newTestStore(t)

	var n int
	err := store.DB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'listings'`).Scan(&n)
	if err != nil {
		t.Fatalf("querying schema: %v", err)
	}
	if n != 1 {
		t.Errorf("listings table count = %d, want 1", n)
	}
}

func TestListing_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	want := mustCreateListing(t, store, "l-1")

	got, err := store.Listings().GetByID(context.Background(), "l-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != want.Title {
		t.Errorf("Title = %q, want %q", got.Title, want.Title)
	}
	if !got.Price.Equal(want.Price) {
		t.Errorf("Price = %s, want %s", got.Price, want.Price)
	}
	if got.Address != want.Address {
		t.Errorf("Address = %+v, want %+v", got.Address, want.Address)
	}
	if len(got.Photos) != 1 || got.Photos[0].Key != "listings/l-1/p1" {
		t.Errorf("Photos = %+v", got.Photos)
	}
	if !got.Available || got.Moderation != domain.ModerationApproved {
		t.Errorf("got moderation %q available %v", got.Moderation, got.Available)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
}

func TestListing_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Listings().GetByID(context.Background(), "missing")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestListing_UpdateVersionCheck(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	l := mustCreateListing(t, store, "l-1")

	l.Title = "Renovated studio"
	if err := store.Listings().Update(ctx, l); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.Listings().GetByID(ctx, "l-1")
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
	if got.Title != "Renovated studio" {
		t.Errorf("Title = %q", got.Title)
	}

	// l still carries version 0.
	err := store.Listings().Update(ctx, l)
	var stale *domain.StaleVersionError
	if !errors.As(err, &stale) {
		t.Fatalf("expected StaleVersionError, got %v", err)
	}
	if domain.KindOf(err) != domain.KindConflict {
		t.Errorf("kind = %v, want conflict", domain.KindOf(err))
	}

	err = store.Listings().Update(ctx, domain.Listing{ID: "missing"})
	if domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("kind = %v, want not found", domain.KindOf(err))
	}
}

func TestListing_AvailabilityRequiresApproval(t *testing.T) {
	store := newTestStore(t)
	l := mustCreateListing(t, store, "l-1")

	l.Moderation = domain.ModerationPending
	if err := store.Listings().Update(context.Background(), l); err == nil {
		t.Fatal("expected check constraint to reject available pending listing")
	}
}

func TestListing_ListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreateListing(t, store, "l-1")
	mustCreateListing(t, store, "l-2")

	pending := domain.Listing{
		ID: "l-3", OwnerID: "owner-2", Category: domain.CategoryRoom, Title: "Room",
		Price: xof(t, "5000"), Address: domain.Address{City: "Bouaké", Country: "CI"},
		Moderation: domain.ModerationPending, CreatedAt: now, UpdatedAt: now,
	}
	if err := store.Listings().Create(ctx, pending); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tests := []struct {
		name   string
		filter domain.ListingFilter
		want   int
	}{
		{"all", domain.ListingFilter{}, 3},
		{"city case-insensitive", domain.ListingFilter{City: "ABIDJAN"}, 2},
		{"owner", domain.ListingFilter{OwnerID: "owner-2"}, 1},
		{"available", domain.ListingFilter{AvailableOnly: true}, 2},
		{"paginated", domain.ListingFilter{Limit: 2, Offset: 2}, 1},
		{"offset only", domain.ListingFilter{Offset: 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Listings().List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestListing_ViewCounter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreateListing(t, store, "l-1")
	repo := store.Listings()

	for range 3 {
		if _, err := repo.IncrementViews(ctx, "l-1"); err != nil {
			t.Fatalf("IncrementViews failed: %v", err)
		}
	}
	views, err := repo.Views(ctx, "l-1")
	if err != nil {
		t.Fatalf("Views failed: %v", err)
	}
	if views != 3 {
		t.Errorf("views = %d, want 3", views)
	}

	// Counting views leaves the version alone.
	l, _ := repo.GetByID(ctx, "l-1")
	if l.Version != 0 {
		t.Errorf("Version = %d, want 0", l.Version)
	}

	if _, err := repo.IncrementViews(ctx, "missing"); domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestBooking_RoundTripAndFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreateListing(t, store, "l-1")
	want := mustCreateBooking(t, store, "b-1", "l-1", domain.BookingPending)
	mustCreateBooking(t, store, "b-2", "l-1", domain.BookingAccepted)

	got, err := store.Bookings().GetByID(ctx, "b-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Period.Start.Equal(want.Period.Start) || !got.Period.End.Equal(want.Period.End) {
		t.Errorf("Period = %+v, want %+v", got.Period, want.Period)
	}
	if !got.TotalPrice.Equal(want.TotalPrice) {
		t.Errorf("TotalPrice = %s, want %s", got.TotalPrice, want.TotalPrice)
	}

	accepted := domain.BookingAccepted
	list, err := store.Bookings().List(ctx, domain.BookingFilter{ListingID: "l-1", Status: &accepted})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "b-2" {
		t.Errorf("List = %+v", list)
	}
}

func TestBooking_CreateRequiresListing(t *testing.T) {
	store := newTestStore(t)

	err := store.Bookings().Create(context.Background(), domain.Booking{
		ID: "b-1", ListingID: "missing",
		Period: domain.Period{
			Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		},
		TotalPrice: xof(t, "1000"), Status: domain.BookingPending, CreatedAt: now, UpdatedAt: now,
	})
	if domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestBooking_UpdateStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	mustCreateListing(t, store, "l-1")
	b := mustCreateBooking(t, store, "b-1", "l-1", domain.BookingPending)

	b = b.Moved(domain.BookingCancelled, domain.Actor{ID: "tenant-1", Role: domain.RoleTenant}, "change of plans", now.Add(time.Hour))
	if err := store.Bookings().Update(ctx, b); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.Bookings().GetByID(ctx, "b-1")
	if got.Status != domain.BookingCancelled {
		t.Errorf("Status = %q", got.Status)
	}
	if got.CancelledBy != "tenant-1" || got.CancellationReason != "change of plans" {
		t.Errorf("cancellation = %q/%q", got.CancelledBy, got.CancellationReason)
	}
}
