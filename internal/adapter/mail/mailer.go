// Package mail delivers notification emails.
package mail

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/neomorfeo/rentwise/internal/domain"
)

var _ domain.Mailer = (*LogMailer)(nil)

// LogMailer writes each email to the log instead of sending it. It backs
// development setups without an outgoing mail relay.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer creates a mailer logging through logger.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "mail").Logger()}
}

func (m *LogMailer) Send(ctx context.Context, email domain.Email) error {
	if email.To == "" {
		return errors.New("email has no recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.logger.Info().
		Str("to", email.To).
		Str("subject", email.Subject).
		Str("body", email.Body).
		Msg("email sent")
	return nil
}
