// Package river publishes lifecycle events through a River job queue
// stored in the application's SQLite database.
package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// maxAttempts bounds notification retries for one event.
const maxAttempts = 5

var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries one lifecycle event for one recipient. River
// serializes it as JSON into its job table, so the worker never needs to
// query the database. A retry only redelivers to that recipient.
type EventJobArgs struct {
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entity_id"`
	Event      string    `json:"event"`
	Status     string    `json:"status"`
	ActorID    string    `json:"actor_id"`
	Recipient  string    `json:"recipient"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "lifecycle.event" }

// InsertOpts applies to every lifecycle job.
func (EventJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: maxAttempts}
}

func (a EventJobArgs) event() domain.LifecycleEvent {
	return domain.LifecycleEvent{
		Entity:     a.Entity,
		EntityID:   a.EntityID,
		Event:      a.Event,
		Status:     a.Status,
		ActorID:    a.ActorID,
		Recipients: []string{a.Recipient},
		OccurredAt: a.OccurredAt,
	}
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues one job per recipient of ev in a single insert. Events
// without recipients have nobody to notify and are dropped.
func (p *Publisher) Publish(ctx context.Context, ev domain.LifecycleEvent) error {
	if len(ev.Recipients) == 0 {
		return nil
	}
	params := make([]river.InsertManyParams, 0, len(ev.Recipients))
	for _, to := range ev.Recipients {
		params = append(params, river.InsertManyParams{Args: EventJobArgs{
			Entity:     ev.Entity,
			EntityID:   ev.EntityID,
			Event:      ev.Event,
			Status:     ev.Status,
			ActorID:    ev.ActorID,
			Recipient:  to,
			OccurredAt: ev.OccurredAt,
		}})
	}
	_, err := p.client.InsertMany(ctx, params)
	if err != nil {
		return fmt.Errorf("enqueuing %s event job: %w", ev.Entity, err)
	}
	return nil
}
