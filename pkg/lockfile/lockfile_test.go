package lockfile_test

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/lockfile"
)

func TestAcquireRelease(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	first := lockfile.New(dir, "send")
	require.NoError(t, first.Acquire(ctx, 0))
	assert.True(t, first.Held())

	raw, err := os.ReadFile(first.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(raw)))

	second := lockfile.New(dir, "send")
	assert.ErrorIs(t, second.Acquire(ctx, 0), lockfile.ErrAlreadyLocked)
	assert.ErrorIs(t, first.Acquire(ctx, 0), lockfile.ErrAlreadyLocked)

	require.NoError(t, first.Release())
	require.NoError(t, first.Release())
	assert.False(t, first.Held())

	require.NoError(t, second.Acquire(ctx, 0))
	require.NoError(t, second.Release())
}

func TestAcquireWait(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	holder := lockfile.New(dir, "send")
	require.NoError(t, holder.Acquire(ctx, 0))
	t.Cleanup(func() { _ = holder.Release() })

	t.Run("times out", func(t *testing.T) {
		waiter := lockfile.New(dir, "send", lockfile.WithPollInterval(5*time.Millisecond))
		start := time.Now()
		err := waiter.Acquire(ctx, 30*time.Millisecond)
		assert.ErrorIs(t, err, lockfile.ErrLockTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("context cancelled", func(t *testing.T) {
		waiter := lockfile.New(dir, "send", lockfile.WithPollInterval(5*time.Millisecond))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, waiter.Acquire(cctx, time.Minute), context.Canceled)
	})

	t.Run("acquires once released", func(t *testing.T) {
		own := t.TempDir()
		busy := lockfile.New(own, "send")
		other := lockfile.New(own, "send", lockfile.WithPollInterval(5*time.Millisecond))
		require.NoError(t, busy.Acquire(ctx, 0))
		go func() {
			time.Sleep(20 * time.Millisecond)
			_ = busy.Release()
		}()
		require.NoError(t, other.Acquire(ctx, time.Second))
		require.NoError(t, other.Release())
	})
}
