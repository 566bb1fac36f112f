package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/neomorfeo/rentwise/internal/domain"
)

var (
	_ domain.SubscriptionRepository = (*SubscriptionRepository)(nil)
	_ domain.ContributionRepository = (*ContributionRepository)(nil)
)

// SubscriptionRepository implements domain.SubscriptionRepository.
type SubscriptionRepository struct {
	db *sql.DB
}

const subscriptionColumns = `id, member_id, membership_number, status, joined_at, terminated_at,
	version, created_at, updated_at`

func (r *SubscriptionRepository) Create(ctx context.Context, s domain.Subscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.MemberID, s.MembershipNumber, string(s.Status), formatTime(s.JoinedAt), nullTime(s.TerminatedAt),
		s.Version, formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			// SQLite names the violated columns in the message.
			msg := err.Error()
			switch {
			case strings.Contains(msg, "membership_number"):
				return domain.ErrMembershipNumberTaken
			case strings.Contains(msg, "member_id"):
				return &domain.ConflictError{Entity: "subscription", Reason: "member already has an active subscription"}
			}
			return &domain.ConflictError{Entity: "subscription", Reason: "id " + s.ID + " already exists"}
		}
		return fmt.Errorf("inserting subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (domain.Subscription, error) {
	return r.getBy(ctx, "id", id)
}

func (r *SubscriptionRepository) GetActiveByMember(ctx context.Context, memberID string) (domain.Subscription, error) {
	s, err := scanSubscription(r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE member_id = ? AND status = ?`,
		memberID, string(domain.SubscriptionActive)))
	if err != nil {
		return domain.Subscription{}, notFound(err, "subscription", memberID)
	}
	return s, nil
}

func (r *SubscriptionRepository) GetByMembershipNumber(ctx context.Context, number string) (domain.Subscription, error) {
	return r.getBy(ctx, "membership_number", number)
}

func (r *SubscriptionRepository) getBy(ctx context.Context, column, value string) (domain.Subscription, error) {
	s, err := scanSubscription(r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE `+column+` = ?`, value))
	if err != nil {
		return domain.Subscription{}, notFound(err, "subscription", value)
	}
	return s, nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, s domain.Subscription) error {
	return execVersioned(ctx, r.db, "subscriptions", "subscription", s.ID, s.Version,
		`UPDATE subscriptions SET status = ?, terminated_at = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		string(s.Status), nullTime(s.TerminatedAt), formatTime(s.UpdatedAt),
	)
}

func scanSubscription(sc scanner) (domain.Subscription, error) {
	var (
		s                    domain.Subscription
		status, joinedAt     string
		terminatedAt         sql.NullString
		createdAt, updatedAt string
	)
	err := sc.Scan(&s.ID, &s.MemberID, &s.MembershipNumber, &status, &joinedAt, &terminatedAt,
		&s.Version, &createdAt, &updatedAt)
	if err != nil {
		return domain.Subscription{}, err
	}
	s.Status = domain.SubscriptionStatus(status)
	s.JoinedAt = parseTime(joinedAt)
	s.TerminatedAt = timePtr(terminatedAt)
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return s, nil
}

// ContributionRepository implements domain.ContributionRepository.
type ContributionRepository struct {
	db *sql.DB
}

const contributionColumns = `id, subscription_id, month, year, amount, currency, payment_ref,
	status, paid_at, version, created_at, updated_at`

func (r *ContributionRepository) Create(ctx context.Context, c domain.Contribution) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contributions (`+contributionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SubscriptionID, c.Period.Month, c.Period.Year, amount(c.Amount), c.Amount.Currency(),
		c.PaymentRef, string(c.Status), nullTime(c.PaidAt),
		c.Version, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return &domain.ConflictError{Entity: "contribution", Reason: "period " + c.Period.String() + " already recorded"}
		case isForeignKeyViolation(err):
			return &domain.NotFoundError{Entity: "subscription", ID: c.SubscriptionID}
		}
		return fmt.Errorf("inserting contribution: %w", err)
	}
	return nil
}

func (r *ContributionRepository) GetByPeriod(ctx context.Context, subscriptionID string, period domain.BillingPeriod) (domain.Contribution, error) {
	c, err := scanContribution(r.db.QueryRowContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions WHERE subscription_id = ? AND year = ? AND month = ?`,
		subscriptionID, period.Year, period.Month))
	if err != nil {
		return domain.Contribution{}, notFound(err, "contribution", subscriptionID+"/"+period.String())
	}
	return c, nil
}

func (r *ContributionRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]domain.Contribution, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions WHERE subscription_id = ? ORDER BY year, month`,
		subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("listing contributions: %w", err)
	}
	defer rows.Close()

	contributions := make([]domain.Contribution, 0)
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning contribution row: %w", err)
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

func (r *ContributionRepository) Update(ctx context.Context, c domain.Contribution) error {
	return execVersioned(ctx, r.db, "contributions", "contribution", c.ID, c.Version,
		`UPDATE contributions SET payment_ref = ?, status = ?, paid_at = ?, updated_at = ?,
		 version = version + 1
		 WHERE id = ? AND version = ?`,
		c.PaymentRef, string(c.Status), nullTime(c.PaidAt), formatTime(c.UpdatedAt),
	)
}

func scanContribution(s scanner) (domain.Contribution, error) {
	var (
		c                     domain.Contribution
		amt, currency, status string
		paidAt                sql.NullString
		createdAt, updatedAt  string
	)
	err := s.Scan(&c.ID, &c.SubscriptionID, &c.Period.Month, &c.Period.Year, &amt, &currency,
		&c.PaymentRef, &status, &paidAt, &c.Version, &createdAt, &updatedAt)
	if err != nil {
		return domain.Contribution{}, err
	}
	c.Status = domain.ContributionStatus(status)
	c.PaidAt = timePtr(paidAt)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	if c.Amount, err = money(amt, currency); err != nil {
		return domain.Contribution{}, err
	}
	return c, nil
}
