// Package sqlite implements the domain repositories on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/neomorfeo/rentwise/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store owns the database handle shared by all repositories.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate database, and a single
	// writer avoids SQLITE_BUSY under the job queue.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready store.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Listings() *ListingRepository           { return &ListingRepository{db: s.db} }
func (s *Store) Bookings() *BookingRepository           { return &BookingRepository{db: s.db} }
func (s *Store) Payments() *PaymentRepository           { return &PaymentRepository{db: s.db} }
func (s *Store) Disputes() *DisputeRepository           { return &DisputeRepository{db: s.db} }
func (s *Store) Subscriptions() *SubscriptionRepository { return &SubscriptionRepository{db: s.db} }
func (s *Store) Contributions() *ContributionRepository { return &ContributionRepository{db: s.db} }
func (s *Store) Messages() *MessageRepository           { return &MessageRepository{db: s.db} }
func (s *Store) Reviews() *ReviewRepository             { return &ReviewRepository{db: s.db} }

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const (
	timeFormat = time.RFC3339Nano
	dateFormat = time.DateOnly
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func timePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// amount returns the decimal text stored for m; an unset Money stores "".
func amount(m domain.Money) string {
	if m.Currency() == "" {
		return ""
	}
	return m.Amount().String()
}

func money(amount, currency string) (domain.Money, error) {
	if currency == "" || amount == "" {
		return domain.Money{}, nil
	}
	m, err := domain.ParseMoney(amount, currency)
	if err != nil {
		return domain.Money{}, fmt.Errorf("decoding stored amount %q %s: %w", amount, currency, err)
	}
	return m, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation checks if a SQLite error is a FOREIGN KEY constraint violation.
func isForeignKeyViolation(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// execVersioned runs an UPDATE whose WHERE clause ends with
// "id = ? AND version = ?" and maps zero affected rows to NotFound or
// StaleVersion.
func execVersioned(ctx context.Context, db *sql.DB, table, entity, id string, version int64, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, append(args, id, version)...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", entity, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var current int64
	err = db.QueryRowContext(ctx, `SELECT version FROM `+table+` WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	if err != nil {
		return fmt.Errorf("reading %s version: %w", entity, err)
	}
	return &domain.StaleVersionError{Entity: entity, ID: id, Version: version}
}

// notFound maps sql.ErrNoRows to a domain NotFoundError.
func notFound(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("scanning %s: %w", entity, err)
}

// paginate appends LIMIT/OFFSET clauses.
func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	} else if offset > 0 {
		query += ` LIMIT -1`
	}
	if offset > 0 {
		query += ` OFFSET ?`
		args = append(args, offset)
	}
	return query, args
}
