package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/queue"
)

func signalOrDefault(signal string) string {
	if signal == "" {
		return DefaultSignal
	}
	return signal
}

// Observe subscribes observer to signal on target with the given notice type.
// The observer must be active and allowed to view the target.
func (s *Service) Observe(ctx context.Context, target Target, observer User, label, signal string) (ObservedItem, error) {
	if !observer.Active {
		return ObservedItem{}, ErrPermissionDenied
	}
	if s.perms != nil {
		ok, err := s.perms.CanView(ctx, observer, target)
		if err != nil {
			return ObservedItem{}, fmt.Errorf("check view permission: %w", err)
		}
		if !ok {
			return ObservedItem{}, ErrPermissionDenied
		}
	}
	if _, err := s.store.GetNoticeType(ctx, label); err != nil {
		return ObservedItem{}, err
	}
	return s.store.CreateObservation(ctx, ObservedItem{
		UserID:     observer.ID,
		Target:     target,
		NoticeType: label,
		Signal:     signalOrDefault(signal),
	})
}

// StopObserving removes the subscription; ErrNotObserving when there is none.
func (s *Service) StopObserving(ctx context.Context, target Target, observer User, signal string) error {
	return s.store.DeleteObservation(ctx, target, observer.ID, signalOrDefault(signal))
}

// IsObserving reports whether observer is subscribed. Inactive users never are.
func (s *Service) IsObserving(ctx context.Context, target Target, observer User, signal string) (bool, error) {
	if !observer.Active {
		return false, nil
	}
	_, err := s.store.GetObservation(ctx, target, observer.ID, signalOrDefault(signal))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotObserving):
		return false, nil
	}
	return false, err
}

// Observed lists what userID observes, newest first.
func (s *Service) Observed(ctx context.Context, userID int64) ([]ObservedItem, error) {
	return s.store.ListObserved(ctx, userID)
}

// SendObservationNotices notifies every observer of signal on target. The
// extra context gains "observed" set to target.
//
// In queue-all mode observers are grouped by notice type, in first-seen
// order, and written as one batch row holding one entry per type. Otherwise
// each observer goes through Send individually.
func (s *Service) SendObservationNotices(ctx context.Context, target Target, signal string, extra Context, onSite bool, sender *User) ([]ObservedItem, error) {
	items, err := s.store.ListObservers(ctx, target, signalOrDefault(signal))
	if err != nil {
		return nil, fmt.Errorf("list observers: %w", err)
	}
	extra = extra.With(KeyObserved, target)

	if s.queueAll {
		if s.enqueuer == nil {
			return items, ErrNoQueue
		}
		var senderID *int64
		if sender != nil {
			id := sender.ID
			senderID = &id
		}
		var entries []queue.Entry
		index := make(map[string]int)
		for _, item := range items {
			i, ok := index[item.NoticeType]
			if !ok {
				i = len(entries)
				index[item.NoticeType] = i
				entries = append(entries, queue.Entry{
					Label:   item.NoticeType,
					Context: extra,
					OnSite:  onSite,
					Sender:  senderID,
				})
			}
			entries[i].Recipients = append(entries[i].Recipients, item.UserID)
		}
		if len(entries) > 0 {
			if _, err := s.enqueuer.Enqueue(ctx, entries...); err != nil {
				return items, err
			}
		}
		return items, nil
	}

	for _, item := range items {
		user, err := s.store.GetUser(ctx, item.UserID)
		if err != nil {
			if IsNotFound(err) {
				s.logger.LogAttrs(ctx, slog.LevelWarn, "observer no longer exists",
					logger.UserID(item.UserID), logger.NoticeType(item.NoticeType))
				continue
			}
			return items, err
		}
		opts := []SendOption{WithOnSite(onSite), WithSender(sender)}
		if _, err := s.Send(ctx, []User{user}, item.NoticeType, extra, opts...); err != nil {
			return items, err
		}
	}
	return items, nil
}
