package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/engine"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/queue"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		recipients []int64
		workers    int
		want       [][]int64
	}{
		{name: "empty", recipients: nil, workers: 3, want: nil},
		{name: "single worker", recipients: []int64{1, 2, 3}, workers: 1, want: [][]int64{{1, 2, 3}}},
		{name: "even", recipients: []int64{1, 2, 3, 4}, workers: 2, want: [][]int64{{1, 2}, {3, 4}}},
		{name: "uneven", recipients: []int64{1, 2, 3, 4, 5}, workers: 3, want: [][]int64{{1, 2}, {3, 4}, {5}}},
		{name: "more workers than recipients", recipients: []int64{1, 2}, workers: 5, want: [][]int64{{1}, {2}}},
		{name: "zero workers", recipients: []int64{1, 2}, workers: 0, want: [][]int64{{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sender := int64(7)
			parts := engine.Split(queue.Entry{Recipients: tt.recipients, Label: "x", OnSite: true, Sender: &sender}, tt.workers)
			var got [][]int64
			for _, p := range parts {
				assert.Equal(t, "x", p.Label)
				assert.True(t, p.OnSite)
				assert.Equal(t, &sender, p.Sender)
				got = append(got, p.Recipients)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

type sendCall struct {
	recipient int64
	sender    *notification.User
}

type fakeSender struct {
	calls []sendCall
	errs  map[int64]error
}

func (f *fakeSender) SendNow(_ context.Context, recipients []notification.User, label string, _ notification.Context, _ bool, sender *notification.User) (notification.Counts, error) {
	u := recipients[0]
	f.calls = append(f.calls, sendCall{recipient: u.ID, sender: sender})
	if err := f.errs[u.ID]; err != nil {
		return nil, err
	}
	return notification.Counts{"email": 1}, nil
}

func TestPartSender(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := notification.NewMemoryStore()
	store.PutUser(
		notification.User{ID: 1, Active: true},
		notification.User{ID: 2, Active: true},
		notification.User{ID: 9, Active: true},
	)

	t.Run("skips missing recipients", func(t *testing.T) {
		t.Parallel()
		fs := &fakeSender{}
		ps := engine.NewPartSender(store, fs, nil)
		sender := int64(9)

		counts, err := ps.SendPart(ctx, engine.Part{Recipients: []int64{1, 404, 2}, Label: "x", Sender: &sender})
		require.NoError(t, err)
		assert.Equal(t, notification.Counts{"email": 2}, counts)
		require.Len(t, fs.calls, 2)
		assert.Equal(t, int64(9), fs.calls[0].sender.ID)
	})

	t.Run("missing sender skips part", func(t *testing.T) {
		t.Parallel()
		fs := &fakeSender{}
		sender := int64(404)
		counts, err := engine.NewPartSender(store, fs, nil).SendPart(ctx, engine.Part{Recipients: []int64{1}, Label: "x", Sender: &sender})
		require.NoError(t, err)
		assert.Zero(t, counts.Total())
		assert.Empty(t, fs.calls)
	})

	t.Run("not found dispatch continues", func(t *testing.T) {
		t.Parallel()
		fs := &fakeSender{errs: map[int64]error{1: notification.ErrNoticeTypeNotFound}}
		counts, err := engine.NewPartSender(store, fs, nil).SendPart(ctx, engine.Part{Recipients: []int64{1, 2}, Label: "x"})
		require.NoError(t, err)
		assert.Equal(t, notification.Counts{"email": 1}, counts)
	})

	t.Run("other failures stop", func(t *testing.T) {
		t.Parallel()
		fs := &fakeSender{errs: map[int64]error{1: errors.New("db down")}}
		_, err := engine.NewPartSender(store, fs, nil).SendPart(ctx, engine.Part{Recipients: []int64{1, 2}, Label: "x"})
		assert.Error(t, err)
		assert.Len(t, fs.calls, 1)
	})
}
