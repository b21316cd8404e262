package inbox

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory Storage for development and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	notices map[uuid.UUID]Notice
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{notices: make(map[uuid.UUID]Notice)}
}

func (s *MemoryStorage) Create(_ context.Context, n Notice) error {
	if n.RecipientID == 0 {
		return ErrInvalidRecipient
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Added.IsZero() {
		n.Added = time.Now().UTC()
	}
	s.mu.Lock()
	s.notices[n.ID] = n
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Get(_ context.Context, id uuid.UUID) (Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notices[id]
	if !ok {
		return Notice{}, ErrNoticeNotFound
	}
	return n, nil
}

func (s *MemoryStorage) List(_ context.Context, userID int64, opts ListOptions) ([]Notice, error) {
	s.mu.RLock()
	out := make([]Notice, 0)
	for _, n := range s.notices {
		if opts.Matches(userID, n) {
			out = append(out, n)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Notice) int { return b.Added.Compare(a.Added) })

	if opts.Offset >= len(out) {
		return []Notice{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *MemoryStorage) MarkSeen(_ context.Context, ids ...uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if n, ok := s.notices[id]; ok {
			n.Unseen = false
			s.notices[id] = n
		}
	}
	return nil
}

func (s *MemoryStorage) Archive(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notices[id]
	if !ok {
		return ErrNoticeNotFound
	}
	n.Archived = true
	s.notices[id] = n
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notices[id]; !ok {
		return ErrNoticeNotFound
	}
	delete(s.notices, id)
	return nil
}

func (s *MemoryStorage) CountUnseen(_ context.Context, recipientID int64, onSite *bool) (int, error) {
	opts := ListOptions{Unseen: boolPtr(true), OnSite: onSite}
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notices {
		if opts.Matches(recipientID, n) {
			count++
		}
	}
	return count, nil
}
