// Package app holds the lifecycle services. Each operation loads the
// entities it needs, checks authorization, asks the transition validator
// for the destination state, persists the new value with a version check
// and publishes a lifecycle event.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// Option customizes a lifecycle service.
type Option func(*base)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithLogger sets the logger used for best-effort side effects.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *base) { b.logger = logger }
}

// base carries what every lifecycle service shares.
type base struct {
	publisher domain.EventPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

func newBase(publisher domain.EventPublisher, opts []Option) base {
	b := base{
		publisher: publisher,
		logger:    zerolog.Nop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// publish announces a transition that is already persisted. A publisher
// failure is logged and never undoes or fails the operation.
func (b *base) publish(ctx context.Context, ev domain.LifecycleEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = b.now()
	}
	if err := b.publisher.Publish(ctx, ev); err != nil {
		b.logger.Warn().Err(err).
			Str("entity", ev.Entity).
			Str("entity_id", ev.EntityID).
			Str("event", ev.Event).
			Msg("lifecycle event not published")
	}
}

// recipients lists the parties to notify about an action, leaving out the actor.
func recipients(actorID string, parties ...string) []string {
	out := make([]string, 0, len(parties))
	for _, p := range parties {
		if p == "" || p == actorID {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen == p {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

func newEntityID(entity string) (string, error) {
	id, err := newID()
	if err != nil {
		return "", fmt.Errorf("generating %s id: %w", entity, err)
	}
	return id, nil
}
