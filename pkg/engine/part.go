package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/queue"
)

// Part is one chunk of a queued entry handed to a worker.
type Part struct {
	Recipients []int64
	Label      string
	Context    notification.Context
	OnSite     bool
	Sender     *int64
}

// Split cuts e into at most workers contiguous parts of near-equal size.
// Empty recipient lists yield no parts.
func Split(e queue.Entry, workers int) []Part {
	n := len(e.Recipients)
	if n == 0 {
		return nil
	}
	workers = max(1, min(workers, n))

	parts := make([]Part, 0, workers)
	size, rest := n/workers, n%workers
	start := 0
	for i := range workers {
		end := start + size
		if i < rest {
			end++
		}
		parts = append(parts, Part{
			Recipients: e.Recipients[start:end],
			Label:      e.Label,
			Context:    e.Context,
			OnSite:     e.OnSite,
			Sender:     e.Sender,
		})
		start = end
	}
	return parts
}

// Entry turns p back into a queue entry for the worker wire format.
func (p Part) Entry() queue.Entry {
	return queue.Entry{
		Recipients: p.Recipients,
		Label:      p.Label,
		Context:    p.Context,
		OnSite:     p.OnSite,
		Sender:     p.Sender,
	}
}

// Sender is the synchronous delivery path.
type Sender interface {
	SendNow(ctx context.Context, recipients []notification.User, label string, extra notification.Context, onSite bool, sender *notification.User) (notification.Counts, error)
}

// Runner delivers one part.
type Runner interface {
	SendPart(ctx context.Context, p Part) (notification.Counts, error)
}

// PartSender loads recipients and dispatches them one at a time, so each
// recipient's delivery is logged and timed on its own.
type PartSender struct {
	users  notification.UserStore
	sender Sender
	logger *slog.Logger
}

func NewPartSender(users notification.UserStore, sender Sender, l *slog.Logger) *PartSender {
	if l == nil {
		l = slog.Default()
	}
	return &PartSender{users: users, sender: sender, logger: l}
}

// SendPart skips recipients that no longer exist and not-found failures of a
// single dispatch. Other errors are returned with the counts so far. A
// missing sender skips the whole part.
func (s *PartSender) SendPart(ctx context.Context, p Part) (notification.Counts, error) {
	sent := notification.Counts{}

	var sender *notification.User
	if p.Sender != nil {
		u, err := s.users.GetUser(ctx, *p.Sender)
		switch {
		case notification.IsNotFound(err):
			s.logger.WarnContext(ctx, "not emitting notice since its sender does not exist",
				logger.NoticeType(p.Label), logger.SenderID(p.Sender))
			return sent, nil
		case err != nil:
			return sent, fmt.Errorf("load sender %d: %w", *p.Sender, err)
		}
		sender = &u
	}

	for _, id := range p.Recipients {
		user, err := s.users.GetUser(ctx, id)
		if err != nil {
			if notification.IsNotFound(err) {
				s.logger.WarnContext(ctx, "not emitting notice since the user does not exist",
					logger.NoticeType(p.Label), logger.UserID(id))
				continue
			}
			return sent, fmt.Errorf("load user %d: %w", id, err)
		}

		s.logger.InfoContext(ctx, "emitting notice", logger.NoticeType(p.Label), logger.UserID(id))
		counts, err := s.sender.SendNow(ctx, []notification.User{user}, p.Label, p.Context, p.OnSite, sender)
		sent.Add(counts)
		if err != nil {
			if notification.IsNotFound(err) {
				s.logger.WarnContext(ctx, "cannot emit notice",
					logger.NoticeType(p.Label), logger.UserID(id), logger.Error(err))
				continue
			}
			return sent, err
		}
	}
	return sent, nil
}
