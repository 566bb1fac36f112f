package river

import (
	"context"

	"github.com/riverqueue/river"
	"github.com/rs/zerolog"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// Notifier delivers a lifecycle event to its recipients.
type Notifier interface {
	Notify(ctx context.Context, ev domain.LifecycleEvent) error
}

// EventWorker hands lifecycle event jobs to the notifier. A failed
// delivery is returned so River retries the job, which holds a single
// recipient.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]

	notifier Notifier
	logger   zerolog.Logger
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	logger := w.logger.With().
		Str("entity", job.Args.Entity).
		Str("entity_id", job.Args.EntityID).
		Str("event", job.Args.Event).
		Str("to", job.Args.Recipient).
		Int64("job_id", job.ID).
		Int("attempt", job.Attempt).
		Logger()

	if err := w.notifier.Notify(ctx, job.Args.event()); err != nil {
		logger.Warn().Err(err).Msg("delivering lifecycle event")
		return err
	}
	logger.Debug().Msg("lifecycle event delivered")
	return nil
}
