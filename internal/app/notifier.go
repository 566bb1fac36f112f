package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// Notifier turns lifecycle events into emails for their recipients.
type Notifier struct {
	mailer domain.Mailer
	logger zerolog.Logger
}

// NewNotifier creates a notifier delivering through mailer.
func NewNotifier(mailer domain.Mailer, logger zerolog.Logger) *Notifier {
	return &Notifier{mailer: mailer, logger: logger}
}

// Notify sends one email per recipient. Every recipient is attempted; the
// returned error joins the individual failures.
func (n *Notifier) Notify(ctx context.Context, ev domain.LifecycleEvent) error {
	var errs []error
	for _, to := range ev.Recipients {
		email := Compose(ev, to)
		if err := n.mailer.Send(ctx, email); err != nil {
			n.logger.Error().Err(err).Str("to", to).Str("entity_id", ev.EntityID).Msg("notification failed")
			errs = append(errs, fmt.Errorf("notifying %s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

// Compose renders the email describing ev for one recipient.
func Compose(ev domain.LifecycleEvent, to string) domain.Email {
	subject := fmt.Sprintf("Your %s was updated", ev.Entity)
	if ev.Status != "" {
		subject = fmt.Sprintf("Your %s is now %s", ev.Entity, strings.ReplaceAll(ev.Status, "_", " "))
	}
	body := fmt.Sprintf("%s %s: %s by %s at %s.",
		ev.Entity, ev.EntityID, ev.Event, ev.ActorID, ev.OccurredAt.Format("2006-01-02 15:04 MST"))
	return domain.Email{To: to, Subject: subject, Body: body}
}

// DirectPublisher delivers events synchronously, without a job queue.
type DirectPublisher struct {
	notifier *Notifier
}

// NewDirectPublisher creates a publisher that notifies in-line.
func NewDirectPublisher(notifier *Notifier) *DirectPublisher {
	return &DirectPublisher{notifier: notifier}
}

// Publish notifies the recipients; delivery errors are logged by the
// notifier and not returned, so they never undo a persisted transition.
func (p *DirectPublisher) Publish(ctx context.Context, ev domain.LifecycleEvent) error {
	_ = p.notifier.Notify(ctx, ev)
	return nil
}
