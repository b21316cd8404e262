package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Manager implements the recipient-facing inbox operations.
type Manager struct {
	storage Storage
	logger  *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func NewManager(storage Storage, opts ...ManagerOption) *Manager {
	m := &Manager{storage: storage, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store saves a delivered notice.
func (m *Manager) Store(ctx context.Context, n Notice) error {
	if err := m.storage.Create(ctx, n); err != nil {
		return fmt.Errorf("store notice for user %d: %w", n.RecipientID, err)
	}
	return nil
}

// NoticesFor lists the notices received by userID (or sent, with opts.Sent).
func (m *Manager) NoticesFor(ctx context.Context, userID int64, opts ListOptions) ([]Notice, error) {
	return m.storage.List(ctx, userID, opts)
}

// OnSite lists the unarchived notices meant for the site inbox.
func (m *Manager) OnSite(ctx context.Context, userID int64) ([]Notice, error) {
	return m.storage.List(ctx, userID, ListOptions{OnSite: boolPtr(true)})
}

// UnseenCount counts unseen notices without marking them seen.
func (m *Manager) UnseenCount(ctx context.Context, userID int64, onSite *bool) (int, error) {
	return m.storage.CountUnseen(ctx, userID, onSite)
}

// View returns a notice addressed to actor together with its unseen flag as
// it was before the call. When markSeen is set the notice is marked seen.
// Notices addressed to someone else are reported as not found.
func (m *Manager) View(ctx context.Context, actor Actor, id uuid.UUID, markSeen bool) (Notice, bool, error) {
	n, err := m.storage.Get(ctx, id)
	if err != nil {
		return Notice{}, false, err
	}
	if n.RecipientID != actor.ID {
		return Notice{}, false, ErrNoticeNotFound
	}
	wasUnseen := n.Unseen
	if markSeen && wasUnseen {
		if err := m.storage.MarkSeen(ctx, n.ID); err != nil {
			return Notice{}, false, fmt.Errorf("mark notice seen: %w", err)
		}
		n.Unseen = false
	}
	return n, wasUnseen, nil
}

// Archive hides a notice from the default listing.
func (m *Manager) Archive(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := m.authorize(ctx, actor, id); err != nil {
		return err
	}
	return m.storage.Archive(ctx, id)
}

// Delete removes a notice.
func (m *Manager) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := m.authorize(ctx, actor, id); err != nil {
		return err
	}
	return m.storage.Delete(ctx, id)
}

// MarkAllSeen marks every unseen notice of userID as seen.
func (m *Manager) MarkAllSeen(ctx context.Context, userID int64) error {
	unseen, err := m.storage.List(ctx, userID, ListOptions{IncludeArchived: true, Unseen: boolPtr(true)})
	if err != nil {
		return err
	}
	if len(unseen) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(unseen))
	for i, n := range unseen {
		ids[i] = n.ID
	}
	return m.storage.MarkSeen(ctx, ids...)
}

func (m *Manager) authorize(ctx context.Context, actor Actor, id uuid.UUID) error {
	n, err := m.storage.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.canModify(n) {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "rejected inbox change",
			logger.UserID(actor.ID),
			slog.String("notice_id", id.String()),
			logger.Error(ErrForbidden),
		)
		return ErrForbidden
	}
	return nil
}

// IsNotFound reports whether err means the notice does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoticeNotFound)
}
