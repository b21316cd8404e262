package backends

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Email sends notices through an email.EmailSender. Recipients without an
// address are never sent to.
type Email struct {
	notification.BaseBackend

	Renderer Renderer
	Sender   email.EmailSender
	SiteURL  string
}

func (b *Email) CanSend(ctx context.Context, user notification.User, nt notification.NoticeType) (bool, error) {
	if user.Email == "" {
		return false, nil
	}
	return b.BaseBackend.CanSend(ctx, user, nt)
}

func (b *Email) Deliver(ctx context.Context, recipient notification.User, sender *notification.User, nt notification.NoticeType, extra notification.Context) error {
	data := Data(ctx, recipient, sender, nt, extra, b.SiteURL)

	subject, err := b.Renderer.Render(ctx, nt.Label, FormatSubject, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", FormatSubject, err)
	}
	text, err := b.Renderer.Render(ctx, nt.Label, FormatFull, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", FormatFull, err)
	}
	html, err := b.Renderer.Render(ctx, nt.Label, FormatHTML, data)
	if err != nil && !errors.Is(err, ErrTemplateNotFound) {
		return fmt.Errorf("render %s: %w", FormatHTML, err)
	}

	return b.Sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   recipient.Email,
		Subject:  singleLine(subject),
		BodyText: text,
		BodyHTML: html,
		Tag:      nt.Label,
	})
}

// singleLine joins a rendered subject onto one line.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
