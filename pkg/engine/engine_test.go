package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/engine"
	"github.com/dmitrymomot/notifykit/pkg/lockfile"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/queue"
)

// countingRunner counts one delivery per recipient and records labels in
// the order parts were run.
type countingRunner struct {
	mu     sync.Mutex
	labels  []string
	seen    []int64
	batches []int64
	failOn  string
	panics  bool
}

func (r *countingRunner) SendPart(ctx context.Context, p engine.Part) (notification.Counts, error) {
	if r.panics {
		panic("boom")
	}
	if p.Label == r.failOn {
		return nil, errors.New("db down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, p.Label)
	r.seen = append(r.seen, p.Recipients...)
	if id, ok := engine.BatchFromContext(ctx); ok {
		r.batches = append(r.batches, id)
	}
	return notification.Counts{"email": len(p.Recipients)}, nil
}

type recordingAlerter struct {
	subjects []string
}

func (a *recordingAlerter) Alert(_ context.Context, subject, _ string) error {
	a.subjects = append(a.subjects, subject)
	return nil
}

type stubLock struct {
	err      error
	released bool
}

func (l *stubLock) Acquire(context.Context, time.Duration) error { return l.err }

func (l *stubLock) Release() error {
	l.released = true
	return nil
}

func enqueue(t *testing.T, repo queue.Repository, entries ...queue.Entry) {
	t.Helper()
	enq, err := queue.NewEnqueuer(repo)
	require.NoError(t, err)
	_, err = enq.Enqueue(context.Background(), entries...)
	require.NoError(t, err)
}

func recipients(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i + 1)
	}
	return out
}

func newEngine(t *testing.T, lock engine.Locker, repo queue.Repository, uids notification.UIDStore, pool engine.Pool, opts ...engine.Option) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Config{LockWait: -time.Second, UIDMaxSize: 100000, SiteName: "example"}, lock, repo, uids, pool, opts...)
	require.NoError(t, err)
	return e
}

func TestSendAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("drains oldest first and deletes", func(t *testing.T) {
		t.Parallel()
		repo := queue.NewMemoryStorage()
		enqueue(t, repo, queue.Entry{Recipients: recipients(3), Label: "first"})
		enqueue(t, repo, queue.Entry{Recipients: []int64{10}, Label: "second"}, queue.Entry{Recipients: []int64{11}, Label: "third"})

		runner := &countingRunner{}
		lock := lockfile.New(t.TempDir(), engine.LockName)
		rep := newEngine(t, lock, repo, notification.NewMemoryStore(), engine.Serial{Runner: runner}).SendAll(ctx)

		require.NoError(t, rep.Err)
		assert.Empty(t, rep.Skipped)
		assert.Equal(t, 2, rep.Batches)
		assert.Equal(t, notification.Counts{"email": 5}, rep.Sent)
		assert.Equal(t, []string{"first", "second", "third"}, runner.labels)
		assert.Equal(t, []int64{1, 2, 2}, runner.batches)
		assert.False(t, lock.Held())

		n, err := repo.CountBatches(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("worker count does not change counts", func(t *testing.T) {
		t.Parallel()
		for _, workers := range []int{1, 2, 4, 16} {
			repo := queue.NewMemoryStorage()
			enqueue(t, repo, queue.Entry{Recipients: recipients(10), Label: "x"})
			enqueue(t, repo, queue.Entry{Recipients: recipients(3), Label: "y"})

			runner := &countingRunner{}
			pool, err := engine.NewThreadPool(runner, workers)
			require.NoError(t, err)
			rep := newEngine(t, &stubLock{}, repo, notification.NewMemoryStore(), pool).SendAll(ctx)

			require.NoError(t, rep.Err, "workers=%d", workers)
			assert.Equal(t, notification.Counts{"email": 13}, rep.Sent, "workers=%d", workers)
			assert.ElementsMatch(t, append(recipients(10), recipients(3)...), runner.seen)
		}
	})

	t.Run("lock contention skips", func(t *testing.T) {
		t.Parallel()
		for _, lockErr := range []error{lockfile.ErrAlreadyLocked, lockfile.ErrLockTimeout} {
			repo := queue.NewMemoryStorage()
			enqueue(t, repo, queue.Entry{Recipients: []int64{1}, Label: "x"})
			lock := &stubLock{err: lockErr}

			rep := newEngine(t, lock, repo, notification.NewMemoryStore(), engine.Serial{Runner: &countingRunner{}}).SendAll(ctx)
			assert.NoError(t, rep.Err)
			assert.NotEmpty(t, rep.Skipped)
			assert.Zero(t, rep.Batches)
			assert.False(t, lock.released)

			n, err := repo.CountBatches(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		}
	})

	t.Run("concurrent drains run once", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		holder := lockfile.New(dir, engine.LockName)
		require.NoError(t, holder.Acquire(ctx, 0))
		defer holder.Release()

		repo := queue.NewMemoryStorage()
		enqueue(t, repo, queue.Entry{Recipients: []int64{1}, Label: "x"})
		rep := newEngine(t, lockfile.New(dir, engine.LockName), repo, notification.NewMemoryStore(), engine.Serial{Runner: &countingRunner{}}).SendAll(ctx)
		assert.Equal(t, "lock already in place", rep.Skipped)
	})

	t.Run("failure keeps the batch and alerts", func(t *testing.T) {
		t.Parallel()
		repo := queue.NewMemoryStorage()
		enqueue(t, repo, queue.Entry{Recipients: []int64{1}, Label: "ok"})
		enqueue(t, repo, queue.Entry{Recipients: []int64{2}, Label: "bad"})
		enqueue(t, repo, queue.Entry{Recipients: []int64{3}, Label: "later"})

		runner := &countingRunner{failOn: "bad"}
		lock := &stubLock{}
		alerter := &recordingAlerter{}
		rep := newEngine(t, lock, repo, notification.NewMemoryStore(), engine.Serial{Runner: runner}, engine.WithAlerter(alerter)).SendAll(ctx)

		require.Error(t, rep.Err)
		assert.Equal(t, 1, rep.Batches)
		assert.True(t, lock.released)
		require.Len(t, alerter.subjects, 1)
		assert.Contains(t, alerter.subjects[0], "[example emit_notices]")
		assert.Equal(t, []string{"ok"}, runner.labels)

		n, err := repo.CountBatches(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		t.Parallel()
		repo := queue.NewMemoryStorage()
		enqueue(t, repo, queue.Entry{Recipients: []int64{1}, Label: "x"})
		lock := &stubLock{}

		rep := newEngine(t, lock, repo, notification.NewMemoryStore(), engine.Serial{Runner: &countingRunner{panics: true}}).SendAll(ctx)
		assert.ErrorIs(t, rep.Err, engine.ErrPanic)
		assert.True(t, lock.released)
	})

	t.Run("panic in thread pool is recovered", func(t *testing.T) {
		t.Parallel()
		repo := queue.NewMemoryStorage()
		enqueue(t, repo, queue.Entry{Recipients: recipients(4), Label: "x"})
		pool, err := engine.NewThreadPool(&countingRunner{panics: true}, 2)
		require.NoError(t, err)

		rep := newEngine(t, &stubLock{}, repo, notification.NewMemoryStore(), pool).SendAll(ctx)
		assert.ErrorIs(t, rep.Err, engine.ErrPanic)
	})
}

func TestTrim(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := notification.NewMemoryStore()
	for i := range 25 {
		_, err := store.ClaimUID(ctx, int64(i), fmt.Sprintf("uid-%d", i))
		require.NoError(t, err)
	}

	e, err := engine.New(engine.Config{UIDMaxSize: 20}, &stubLock{}, queue.NewMemoryStorage(), store, engine.Serial{Runner: &countingRunner{}})
	require.NoError(t, err)
	rep := e.SendAll(ctx)
	require.NoError(t, rep.Err)
	assert.Equal(t, 2, rep.Trimmed)

	n, err := store.CountUIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 23, n)
	assert.False(t, store.HasUID(0, "uid-0"))
	assert.False(t, store.HasUID(1, "uid-1"))
	assert.True(t, store.HasUID(2, "uid-2"))
}

func TestTrimStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		count, limit, want int
	}{
		{count: 10, limit: 10, want: 0},
		{count: 11, limit: 10, want: 1},
		{count: 101, limit: 100, want: 10},
		{count: 100001, limit: 100000, want: engine.TrimCap},
		{count: 3, limit: 0, want: 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, engine.TrimStep(tt.count, tt.limit), "count=%d limit=%d", tt.count, tt.limit)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := engine.New(engine.Config{}, nil, nil, nil, nil)
	assert.ErrorIs(t, err, engine.ErrMissingDep)

	_, err = engine.NewThreadPool(&countingRunner{}, 0)
	assert.ErrorIs(t, err, engine.ErrInvalidWorkers)
}

func TestLogBatchID(t *testing.T) {
	t.Parallel()

	_, ok := engine.LogBatchID(context.Background())
	assert.False(t, ok)
}
