package notification

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

type settingKey struct {
	user   int64
	label  string
	medium string
}

type uidKey struct {
	user int64
	uid  string
}

type observationKey struct {
	target Target
	user   int64
	signal string
}

// MemoryStore implements Store in memory for tests and local runs.
type MemoryStore struct {
	mu sync.RWMutex

	types    map[string]NoticeType
	settings map[settingKey]Setting
	users    map[int64]User

	uids    map[uidKey]int64
	uidSeq  int64
	obs     map[observationKey]ObservedItem
	obsSeq  int64
	nowFunc func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		types:    make(map[string]NoticeType),
		settings: make(map[settingKey]Setting),
		users:    make(map[int64]User),
		uids:     make(map[uidKey]int64),
		obs:      make(map[observationKey]ObservedItem),
		nowFunc:  time.Now,
	}
}

// PutUser adds or replaces a user.
func (s *MemoryStore) PutUser(users ...User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.ID] = u
	}
}

// DeleteUser removes a user.
func (s *MemoryStore) DeleteUser(id int64) {
	s.mu.Lock()
	delete(s.users, id)
	s.mu.Unlock()
}

func (s *MemoryStore) GetUser(_ context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetNoticeType(_ context.Context, label string) (NoticeType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nt, ok := s.types[label]
	if !ok {
		return NoticeType{}, ErrNoticeTypeNotFound
	}
	return nt, nil
}

func (s *MemoryStore) ListNoticeTypes(_ context.Context) ([]NoticeType, error) {
	s.mu.RLock()
	out := make([]NoticeType, 0, len(s.types))
	for _, nt := range s.types {
		out = append(out, nt)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b NoticeType) int { return cmp.Compare(a.Label, b.Label) })
	return out, nil
}

func (s *MemoryStore) CreateNoticeType(_ context.Context, nt NoticeType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[nt.Label] = nt
	return nil
}

func (s *MemoryStore) UpdateNoticeType(_ context.Context, nt NoticeType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.types[nt.Label]; !ok {
		return ErrNoticeTypeNotFound
	}
	s.types[nt.Label] = nt
	return nil
}

func (s *MemoryStore) GetSetting(_ context.Context, userID int64, label, medium string) (Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[settingKey{userID, label, medium}]
	if !ok {
		return Setting{}, ErrSettingNotFound
	}
	return st, nil
}

func (s *MemoryStore) CreateSetting(_ context.Context, st Setting) (Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := settingKey{st.UserID, st.NoticeType, st.Medium}
	if existing, ok := s.settings[key]; ok {
		return existing, nil
	}
	s.settings[key] = st
	return st, nil
}

func (s *MemoryStore) SaveSetting(_ context.Context, st Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settingKey{st.UserID, st.NoticeType, st.Medium}] = st
	return nil
}

func (s *MemoryStore) ClaimUID(_ context.Context, recipientID int64, uid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := uidKey{recipientID, uid}
	if _, ok := s.uids[key]; ok {
		return false, nil
	}
	s.uidSeq++
	s.uids[key] = s.uidSeq
	return true, nil
}

func (s *MemoryStore) CountUIDs(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.uids), nil
}

func (s *MemoryStore) TrimUIDs(_ context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	type entry struct {
		key uidKey
		seq int64
	}
	all := make([]entry, 0, len(s.uids))
	for k, seq := range s.uids {
		all = append(all, entry{k, seq})
	}
	slices.SortFunc(all, func(a, b entry) int { return cmp.Compare(a.seq, b.seq) })
	if n > len(all) {
		n = len(all)
	}
	for _, e := range all[:n] {
		delete(s.uids, e.key)
	}
	return n, nil
}

// HasUID reports whether the ledger holds (recipientID, uid).
func (s *MemoryStore) HasUID(recipientID int64, uid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.uids[uidKey{recipientID, uid}]
	return ok
}

func (s *MemoryStore) CreateObservation(_ context.Context, item ObservedItem) (ObservedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := observationKey{item.Target, item.UserID, item.Signal}
	if _, ok := s.obs[key]; ok {
		return ObservedItem{}, ErrAlreadyObserving
	}
	s.obsSeq++
	item.ID = s.obsSeq
	if item.Added.IsZero() {
		item.Added = s.nowFunc()
	}
	s.obs[key] = item
	return item, nil
}

func (s *MemoryStore) GetObservation(_ context.Context, target Target, userID int64, signal string) (ObservedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.obs[observationKey{target, userID, signal}]
	if !ok {
		return ObservedItem{}, ErrNotObserving
	}
	return item, nil
}

func (s *MemoryStore) DeleteObservation(_ context.Context, target Target, userID int64, signal string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := observationKey{target, userID, signal}
	if _, ok := s.obs[key]; !ok {
		return ErrNotObserving
	}
	delete(s.obs, key)
	return nil
}

func (s *MemoryStore) ListObservers(_ context.Context, target Target, signal string) ([]ObservedItem, error) {
	s.mu.RLock()
	out := make([]ObservedItem, 0)
	for k, item := range s.obs {
		if k.target == target && k.signal == signal {
			out = append(out, item)
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b ObservedItem) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *MemoryStore) ListObserved(_ context.Context, userID int64) ([]ObservedItem, error) {
	s.mu.RLock()
	out := make([]ObservedItem, 0)
	for k, item := range s.obs {
		if k.user == userID {
			out = append(out, item)
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b ObservedItem) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}
