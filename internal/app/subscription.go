package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// maxNumberAttempts bounds membership number regeneration on collision.
const maxNumberAttempts = 10

// SubscriptionValidator validates membership transitions.
type SubscriptionValidator = domain.TransitionValidator[domain.SubscriptionStatus, domain.SubscriptionEvent]

// ContributionValidator validates monthly dues transitions.
type ContributionValidator = domain.TransitionValidator[domain.ContributionStatus, domain.ContributionEvent]

// SubscriptionConfig holds the mutual-aid settings.
type SubscriptionConfig struct {
	// MonthlyContribution is the fixed amount due per period.
	MonthlyContribution domain.Money
	// NewNumber generates membership numbers. Defaults to domain.NewMembershipNumber.
	NewNumber func(time.Time) (string, error)
}

// SubscriptionService orchestrates memberships and their contributions.
type SubscriptionService struct {
	base
	subs          domain.SubscriptionRepository
	contributions domain.ContributionRepository
	subValidator  SubscriptionValidator
	dueValidator  ContributionValidator
	cfg           SubscriptionConfig
}

// NewSubscriptionService creates a service with the given adapters.
func NewSubscriptionService(
	subs domain.SubscriptionRepository,
	contributions domain.ContributionRepository,
	subValidator SubscriptionValidator,
	dueValidator ContributionValidator,
	publisher domain.EventPublisher,
	cfg SubscriptionConfig,
	opts ...Option,
) *SubscriptionService {
	if cfg.NewNumber == nil {
		cfg.NewNumber = domain.NewMembershipNumber
	}
	return &SubscriptionService{
		base:          newBase(publisher, opts),
		subs:          subs,
		contributions: contributions,
		subValidator:  subValidator,
		dueValidator:  dueValidator,
		cfg:           cfg,
	}
}

// Join enrolls a student. A member holds at most one active subscription;
// membership numbers are regenerated when the store reports a collision.
func (s *SubscriptionService) Join(ctx context.Context, member domain.Actor) (domain.Subscription, error) {
	if _, err := s.subs.GetActiveByMember(ctx, member.ID); err == nil {
		return domain.Subscription{}, &domain.ConflictError{Entity: "subscription", Reason: "member already holds an active subscription"}
	} else if domain.KindOf(err) != domain.KindNotFound {
		return domain.Subscription{}, err
	}

	id, err := newEntityID("subscription")
	if err != nil {
		return domain.Subscription{}, err
	}
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		now := s.now()
		number, err := s.cfg.NewNumber(now)
		if err != nil {
			return domain.Subscription{}, fmt.Errorf("generating membership number: %w", err)
		}
		sub, err := domain.NewSubscription(id, member, number, now)
		if err != nil {
			return domain.Subscription{}, err
		}
		err = s.subs.Create(ctx, sub)
		if errors.Is(err, domain.ErrMembershipNumberTaken) {
			s.logger.Debug().Int("attempt", attempt).Str("number", number).Msg("membership number collision")
			continue
		}
		if err != nil {
			return domain.Subscription{}, fmt.Errorf("creating subscription: %w", err)
		}
		s.publish(ctx, s.event(sub, domain.SubscriptionEventJoin, member))
		return sub, nil
	}
	return domain.Subscription{}, fmt.Errorf("no free membership number after %d attempts", maxNumberAttempts)
}

// Get returns a subscription visible to the actor.
func (s *SubscriptionService) Get(ctx context.Context, actor domain.Actor, id string) (domain.Subscription, error) {
	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return domain.Subscription{}, err
	}
	if err := sub.AuthorizeMember(actor, "view this subscription"); err != nil {
		return domain.Subscription{}, err
	}
	return sub, nil
}

// Active returns the member's active subscription.
func (s *SubscriptionService) Active(ctx context.Context, member domain.Actor) (domain.Subscription, error) {
	return s.subs.GetActiveByMember(ctx, member.ID)
}

// Terminate ends an active subscription.
func (s *SubscriptionService) Terminate(ctx context.Context, actor domain.Actor, id string) (domain.Subscription, error) {
	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return domain.Subscription{}, err
	}
	if err := sub.AuthorizeMember(actor, "terminate this subscription"); err != nil {
		return domain.Subscription{}, err
	}
	to, err := s.subValidator.Apply(ctx, sub.Status, domain.SubscriptionEventTerminate)
	if err != nil {
		return domain.Subscription{}, err
	}
	sub = sub.Terminated(to, s.now())
	if err := s.subs.Update(ctx, sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("updating subscription: %w", err)
	}
	sub.Version++
	s.publish(ctx, s.event(sub, domain.SubscriptionEventTerminate, actor))
	return sub, nil
}

// PayForPeriod records the member's dues for a month. The contribution is
// looked up or created, then paid; paying an already paid period returns
// the existing contribution unchanged.
func (s *SubscriptionService) PayForPeriod(ctx context.Context, member domain.Actor, month, year int, transactionRef string) (domain.Contribution, error) {
	period, err := domain.NewBillingPeriod(month, year)
	if err != nil {
		return domain.Contribution{}, err
	}
	ref := strings.TrimSpace(transactionRef)
	if ref == "" {
		return domain.Contribution{}, &domain.ValidationError{Field: "transaction_ref", Reason: "must not be empty"}
	}
	sub, err := s.subs.GetActiveByMember(ctx, member.ID)
	if err != nil {
		return domain.Contribution{}, err
	}

	c, err := s.lookupOrCreate(ctx, sub, period)
	if err != nil {
		return domain.Contribution{}, err
	}
	if c.Status == domain.ContributionPaid {
		return c, nil
	}

	to, err := s.dueValidator.Apply(ctx, c.Status, domain.ContributionEventPay)
	if err != nil {
		return domain.Contribution{}, err
	}
	c = c.Paid(to, ref, s.now())
	if err := s.contributions.Update(ctx, c); err != nil {
		return domain.Contribution{}, fmt.Errorf("updating contribution: %w", err)
	}
	c.Version++

	s.publish(ctx, domain.LifecycleEvent{
		Entity:     "contribution",
		EntityID:   c.ID,
		Event:      string(domain.ContributionEventPay),
		Status:     string(c.Status),
		ActorID:    member.ID,
		Recipients: []string{sub.MemberID},
	})
	return c, nil
}

func (s *SubscriptionService) lookupOrCreate(ctx context.Context, sub domain.Subscription, period domain.BillingPeriod) (domain.Contribution, error) {
	c, err := s.contributions.GetByPeriod(ctx, sub.ID, period)
	if err == nil {
		return c, nil
	}
	if domain.KindOf(err) != domain.KindNotFound {
		return domain.Contribution{}, err
	}

	id, err := newEntityID("contribution")
	if err != nil {
		return domain.Contribution{}, err
	}
	c, err = domain.NewContribution(id, sub, period, s.cfg.MonthlyContribution, s.now())
	if err != nil {
		return domain.Contribution{}, err
	}
	if err := s.contributions.Create(ctx, c); err != nil {
		// A concurrent call created the period first.
		if domain.KindOf(err) == domain.KindConflict {
			return s.contributions.GetByPeriod(ctx, sub.ID, period)
		}
		return domain.Contribution{}, fmt.Errorf("creating contribution: %w", err)
	}
	return c, nil
}

// Contributions lists the dues of a subscription visible to the actor.
func (s *SubscriptionService) Contributions(ctx context.Context, actor domain.Actor, subscriptionID string) ([]domain.Contribution, error) {
	if _, err := s.Get(ctx, actor, subscriptionID); err != nil {
		return nil, err
	}
	return s.contributions.ListBySubscription(ctx, subscriptionID)
}

func (s *SubscriptionService) event(sub domain.Subscription, event domain.SubscriptionEvent, actor domain.Actor) domain.LifecycleEvent {
	return domain.LifecycleEvent{
		Entity:     "subscription",
		EntityID:   sub.ID,
		Event:      string(event),
		Status:     string(sub.Status),
		ActorID:    actor.ID,
		Recipients: []string{sub.MemberID},
	}
}
