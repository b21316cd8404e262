package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Alerter tells operators that a drain pass failed.
type Alerter interface {
	Alert(ctx context.Context, subject, body string) error
}

// AlerterFunc adapts a function to Alerter.
type AlerterFunc func(ctx context.Context, subject, body string) error

func (f AlerterFunc) Alert(ctx context.Context, subject, body string) error {
	return f(ctx, subject, body)
}

// EmailAlerter mails every admin address. Failing sends are logged and
// reported jointly.
type EmailAlerter struct {
	sender email.EmailSender
	admins []string
	logger *slog.Logger
}

func NewEmailAlerter(sender email.EmailSender, admins []string, l *slog.Logger) *EmailAlerter {
	if l == nil {
		l = slog.Default()
	}
	return &EmailAlerter{sender: sender, admins: admins, logger: l}
}

func (a *EmailAlerter) Alert(ctx context.Context, subject, body string) error {
	var errs []error
	for _, to := range a.admins {
		err := a.sender.SendEmail(ctx, email.SendEmailParams{
			SendTo:   to,
			Subject:  subject,
			BodyText: body,
			Tag:      "emit_notices",
		})
		if err != nil {
			a.logger.ErrorContext(ctx, "failed to alert admin", slog.String("to", to), logger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

type noopAlerter struct{}

func (noopAlerter) Alert(context.Context, string, string) error { return nil }
