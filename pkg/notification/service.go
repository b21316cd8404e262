package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/queue"
	"github.com/dmitrymomot/notifykit/pkg/token"
)

// Service is the API host applications call to emit notices, manage notice
// types and settings, and handle observations.
type Service struct {
	dispatcher *Dispatcher
	store      Store
	resolver   *Resolver
	enqueuer   *queue.Enqueuer
	perms      PermissionChecker
	signer     *token.Signer

	queueAll       bool
	unsubscribeTTL time.Duration
	logger         *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithEnqueuer enables queued delivery.
func WithEnqueuer(e *queue.Enqueuer) ServiceOption {
	return func(s *Service) { s.enqueuer = e }
}

// WithQueueAll makes Send queue by default.
func WithQueueAll(on bool) ServiceOption {
	return func(s *Service) { s.queueAll = on }
}

// WithObservationPermissions sets the checker used by Observe.
func WithObservationPermissions(p PermissionChecker) ServiceOption {
	return func(s *Service) { s.perms = p }
}

// WithUnsubscribe enables unsubscribe codes signed by signer and valid for ttl.
func WithUnsubscribe(signer *token.Signer, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.signer = signer
		s.unsubscribeTTL = ttl
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(d *Dispatcher, store Store, resolver *Resolver, opts ...ServiceOption) *Service {
	s := &Service{
		dispatcher:     d,
		store:          store,
		resolver:       resolver,
		unsubscribeTTL: 48 * time.Hour,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatcher returns the synchronous delivery path.
func (s *Service) Dispatcher() *Dispatcher { return s.dispatcher }

// QueueAll reports whether Send queues by default.
func (s *Service) QueueAll() bool { return s.queueAll }

type sendOptions struct {
	queue  bool
	now    bool
	onSite bool
	sender *User
}

// SendOption adjusts a single Send call.
type SendOption func(*sendOptions)

// WithQueue forces queued delivery.
func WithQueue() SendOption { return func(o *sendOptions) { o.queue = true } }

// WithNow forces immediate delivery.
func WithNow() SendOption { return func(o *sendOptions) { o.now = true } }

// WithOnSite sets whether the notice shows in the site inbox. Default true.
func WithOnSite(on bool) SendOption { return func(o *sendOptions) { o.onSite = on } }

// WithSender sets the sending user.
func WithSender(u *User) SendOption { return func(o *sendOptions) { o.sender = u } }

// Send delivers now or queues, following the queue-all setting unless
// WithQueue or WithNow is given. Queued sends return empty counts.
func (s *Service) Send(ctx context.Context, recipients []User, label string, extra Context, opts ...SendOption) (Counts, error) {
	o := sendOptions{onSite: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.queue && o.now {
		return nil, ErrConflictingSendMode
	}

	if o.queue || (!o.now && s.queueAll) {
		ids := make([]int64, len(recipients))
		for i, u := range recipients {
			ids[i] = u.ID
		}
		var senderID *int64
		if o.sender != nil {
			id := o.sender.ID
			senderID = &id
		}
		return Counts{}, s.Queue(ctx, ids, label, extra, o.onSite, senderID)
	}
	return s.SendNow(ctx, recipients, label, extra, o.onSite, o.sender)
}

// SendNow delivers immediately through the dispatcher.
func (s *Service) SendNow(ctx context.Context, recipients []User, label string, extra Context, onSite bool, sender *User) (Counts, error) {
	return s.dispatcher.SendNow(ctx, recipients, label, extra, onSite, sender)
}

// Queue stores one batch row for the drain engine.
func (s *Service) Queue(ctx context.Context, recipientIDs []int64, label string, extra Context, onSite bool, senderID *int64) error {
	if s.enqueuer == nil {
		return ErrNoQueue
	}
	if label == "" {
		return ErrEmptyLabel
	}
	_, err := s.enqueuer.Enqueue(ctx, queue.Entry{
		Recipients: recipientIDs,
		Label:      label,
		Context:    extra,
		OnSite:     onSite,
		Sender:     senderID,
	})
	return err
}

// CreateNoticeType creates the notice type or updates its changed fields.
// It reports which of the two happened; both false means nothing changed.
func (s *Service) CreateNoticeType(ctx context.Context, label, display, description string, def int) (created, updated bool, err error) {
	if label == "" {
		return false, false, ErrEmptyLabel
	}
	want := NoticeType{Label: label, Display: display, Description: description, Default: def}

	existing, err := s.store.GetNoticeType(ctx, label)
	switch {
	case IsNotFound(err):
		if err := s.store.CreateNoticeType(ctx, want); err != nil {
			return false, false, fmt.Errorf("create notice type %q: %w", label, err)
		}
		s.logger.DebugContext(ctx, "created notice type", logger.NoticeType(label))
		return true, false, nil
	case err != nil:
		return false, false, fmt.Errorf("load notice type %q: %w", label, err)
	case existing == want:
		return false, false, nil
	}

	if err := s.store.UpdateNoticeType(ctx, want); err != nil {
		return false, false, fmt.Errorf("update notice type %q: %w", label, err)
	}
	s.logger.DebugContext(ctx, "updated notice type", logger.NoticeType(label))
	return false, true, nil
}

// NoticeTypes lists every notice type.
func (s *Service) NoticeTypes(ctx context.Context) ([]NoticeType, error) {
	return s.store.ListNoticeTypes(ctx)
}
