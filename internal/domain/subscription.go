package domain

import (
	"crypto/rand"
	"fmt"
	"time"
)

// SubscriptionStatus represents the membership state of a student.
type SubscriptionStatus string

const (
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionTerminated SubscriptionStatus = "terminated"
)

// SubscriptionEvent triggers a subscription transition.
type SubscriptionEvent string

const (
	SubscriptionEventJoin      SubscriptionEvent = "join"
	SubscriptionEventTerminate SubscriptionEvent = "terminate"
)

// SubscriptionMachine defines the mutual-aid membership lifecycle.
var SubscriptionMachine = Machine[SubscriptionStatus, SubscriptionEvent]{
	Entity: "subscription",
	Transitions: []Transition[SubscriptionStatus, SubscriptionEvent]{
		{Event: SubscriptionEventTerminate, Src: SubscriptionActive, Dst: SubscriptionTerminated},
	},
	Preconditions: map[SubscriptionEvent]string{
		SubscriptionEventTerminate: "subscription is already inactive",
	},
}

// Subscription is a student's mutual-aid membership.
type Subscription struct {
	ID               string
	MemberID         string
	MembershipNumber string
	Status           SubscriptionStatus
	JoinedAt         time.Time
	TerminatedAt     *time.Time
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Active reports whether the membership is in force.
func (s Subscription) Active() bool {
	return s.Status == SubscriptionActive
}

// NewSubscription creates an active membership for a student.
func NewSubscription(id string, member Actor, number string, now time.Time) (Subscription, error) {
	if member.Role != RoleStudent {
		return Subscription{}, member.forbid("join the mutual-aid fund")
	}
	return Subscription{
		ID:               id,
		MemberID:         member.ID,
		MembershipNumber: number,
		Status:           SubscriptionActive,
		JoinedAt:         now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// AuthorizeMember fails unless actor is the member or an administrator.
func (s Subscription) AuthorizeMember(actor Actor, action string) error {
	if actor.ID != s.MemberID && !actor.IsAdmin() {
		return actor.forbid(action)
	}
	return nil
}

// Terminated applies a validated "terminate" transition.
func (s Subscription) Terminated(to SubscriptionStatus, now time.Time) Subscription {
	s.Status = to
	s.TerminatedAt = &now
	s.UpdatedAt = now
	return s
}

// membershipAlphabet omits characters that are easily misread.
const membershipAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewMembershipNumber returns a number such as MUT-202506-7KQ2XD. It embeds
// the month of issue and a random suffix; callers retry on collision.
func NewMembershipNumber(now time.Time) (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random suffix: %w", err)
	}
	for i, v := range b {
		b[i] = membershipAlphabet[int(v)%len(membershipAlphabet)]
	}
	return fmt.Sprintf("MUT-%s-%s", now.UTC().Format("200601"), b), nil
}

// ContributionStatus represents the payment state of a monthly contribution.
type ContributionStatus string

const (
	ContributionPending ContributionStatus = "pending"
	ContributionPaid    ContributionStatus = "paid"
)

// ContributionEvent triggers a contribution transition.
type ContributionEvent string

const ContributionEventPay ContributionEvent = "pay"

// ContributionMachine defines the monthly dues lifecycle.
var ContributionMachine = Machine[ContributionStatus, ContributionEvent]{
	Entity: "contribution",
	Transitions: []Transition[ContributionStatus, ContributionEvent]{
		{Event: ContributionEventPay, Src: ContributionPending, Dst: ContributionPaid},
	},
	Preconditions: map[ContributionEvent]string{
		ContributionEventPay: "contribution is already paid",
	},
}

// BillingPeriod is a calendar month.
type BillingPeriod struct {
	Month int
	Year  int
}

// NewBillingPeriod validates month and year.
func NewBillingPeriod(month, year int) (BillingPeriod, error) {
	if month < 1 || month > 12 {
		return BillingPeriod{}, invalid("month", "must be between 1 and 12, got %d", month)
	}
	if year < 2000 || year > 9999 {
		return BillingPeriod{}, invalid("year", "must be between 2000 and 9999, got %d", year)
	}
	return BillingPeriod{Month: month, Year: year}, nil
}

func (p BillingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Contribution is the monthly due of one subscription for one period.
type Contribution struct {
	ID             string
	SubscriptionID string
	Amount         Money
	Period         BillingPeriod
	PaymentRef     string
	Status         ContributionStatus
	PaidAt         *time.Time
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewContribution creates a pending contribution with the fixed period amount.
func NewContribution(id string, sub Subscription, period BillingPeriod, amount Money, now time.Time) (Contribution, error) {
	if !sub.Active() {
		return Contribution{}, &ConflictError{Entity: "contribution", Reason: "subscription is not active"}
	}
	if amount.Currency() == "" || amount.IsZero() {
		return Contribution{}, invalid("amount", "contribution amount must be positive")
	}
	return Contribution{
		ID:             id,
		SubscriptionID: sub.ID,
		Amount:         amount,
		Period:         period,
		Status:         ContributionPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Paid applies a validated "pay" transition.
func (c Contribution) Paid(to ContributionStatus, ref string, now time.Time) Contribution {
	c.Status = to
	c.PaymentRef = ref
	c.PaidAt = &now
	c.UpdatedAt = now
	return c
}
