package notification_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

type delivered struct {
	Recipient int64
	Label     string
	Language  string
	OnSite    bool
	Extra     notification.Context
}

// recordingBackend records deliveries. It respects settings through
// BaseBackend unless canSendErr is set.
type recordingBackend struct {
	notification.BaseBackend

	mu         sync.Mutex
	sent       []delivered
	canSendErr error
	deliverErr map[int64]error
}

func (b *recordingBackend) CanSend(ctx context.Context, user notification.User, nt notification.NoticeType) (bool, error) {
	if b.canSendErr != nil {
		return false, b.canSendErr
	}
	return b.BaseBackend.CanSend(ctx, user, nt)
}

func (b *recordingBackend) Deliver(ctx context.Context, recipient notification.User, _ *notification.User, nt notification.NoticeType, extra notification.Context) error {
	if err := b.deliverErr[recipient.ID]; err != nil {
		return err
	}
	lang, _ := notification.LanguageFromContext(ctx)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, delivered{
		Recipient: recipient.ID,
		Label:     nt.Label,
		Language:  lang,
		OnSite:    notification.OnSiteFromContext(ctx),
		Extra:     extra,
	})
	return nil
}

func (b *recordingBackend) recipients() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int64, len(b.sent))
	for i, d := range b.sent {
		out[i] = d.Recipient
	}
	return out
}

type fixture struct {
	store    *notification.MemoryStore
	resolver *notification.Resolver
	registry *notification.Registry
	site     *recordingBackend
	email    *recordingBackend
}

// newFixture builds two media: "site" (sensitivity 1) and "email" (sensitivity 2).
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := notification.NewMemoryStore()
	resolver := notification.NewResolver(store, map[string]int{"site": 1, "email": 2})
	site := &recordingBackend{BaseBackend: notification.BaseBackend{MediumID: "site", Resolver: resolver}}
	email := &recordingBackend{BaseBackend: notification.BaseBackend{MediumID: "email", Resolver: resolver}}

	registry, err := notification.NewRegistry(
		notification.Medium{ID: "site", Label: "on-site", SpamSensitivity: 1, Backend: site},
		notification.Medium{ID: "email", Label: "email", SpamSensitivity: 2, Backend: email},
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.CreateNoticeType(ctx, notification.NoticeType{Label: "reply", Display: "Reply", Default: 2}))
	require.NoError(t, store.CreateNoticeType(ctx, notification.NoticeType{Label: "digest", Display: "Digest", Default: 1}))
	store.PutUser(
		notification.User{ID: 1, Email: "one@example.com", Active: true},
		notification.User{ID: 2, Email: "two@example.com", Active: true},
		notification.User{ID: 3, Email: "three@example.com", Active: false},
	)

	return &fixture{store: store, resolver: resolver, registry: registry, site: site, email: email}
}

func (f *fixture) dispatcher(t *testing.T, opts ...notification.DispatcherOption) *notification.Dispatcher {
	t.Helper()
	d, err := notification.NewDispatcher(f.registry, f.store, f.store, opts...)
	require.NoError(t, err)
	return d
}

type permissionFunc func(user notification.User, target notification.Target) (bool, error)

func (f permissionFunc) CanView(_ context.Context, user notification.User, target notification.Target) (bool, error) {
	return f(user, target)
}

type languageMap map[int64]string

func (m languageMap) Language(_ context.Context, userID int64) (string, error) {
	if m == nil {
		return "", notification.ErrLanguageStoreNotAvailable
	}
	lang, ok := m[userID]
	if !ok {
		return "", errors.New("no profile")
	}
	return lang, nil
}

func users(ids ...int64) []notification.User {
	out := make([]notification.User, len(ids))
	for i, id := range ids {
		out[i] = notification.User{ID: id, Active: true}
	}
	return out
}

func ptr[T any](v T) *T { return &v }
