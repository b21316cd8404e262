package queue_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/queue"
)

type failingRepo struct{}

func (failingRepo) CreateBatch(context.Context, []byte) (queue.Batch, error) {
	return queue.Batch{}, errors.New("db down")
}

func TestNewEnqueuer(t *testing.T) {
	t.Parallel()

	_, err := queue.NewEnqueuer(nil)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)

	enq, err := queue.NewEnqueuer(queue.NewMemoryStorage(), queue.WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, enq)
}

func TestEnqueue(t *testing.T) {
	t.Parallel()

	t.Run("one row per call", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		repo := queue.NewMemoryStorage()
		enq, err := queue.NewEnqueuer(repo)
		require.NoError(t, err)

		batch, err := enq.Enqueue(ctx,
			queue.Entry{Recipients: []int64{1}, Label: "a"},
			queue.Entry{Recipients: []int64{2}, Label: "b"},
		)
		require.NoError(t, err)
		assert.Positive(t, batch.ID)

		n, err := repo.CountBatches(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		stored, err := repo.ListBatches(ctx)
		require.NoError(t, err)
		entries, err := stored[0].Entries()
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "a", entries[0].Label)
		assert.Equal(t, "b", entries[1].Label)
	})

	t.Run("zero recipients allowed", func(t *testing.T) {
		t.Parallel()
		enq, err := queue.NewEnqueuer(queue.NewMemoryStorage())
		require.NoError(t, err)
		_, err = enq.Enqueue(context.Background(), queue.Entry{Label: "a"})
		assert.NoError(t, err)
	})

	t.Run("no entries", func(t *testing.T) {
		t.Parallel()
		enq, err := queue.NewEnqueuer(queue.NewMemoryStorage())
		require.NoError(t, err)
		_, err = enq.Enqueue(context.Background())
		assert.ErrorIs(t, err, queue.ErrNoItemsToEnqueue)
	})

	t.Run("invalid entry", func(t *testing.T) {
		t.Parallel()
		enq, err := queue.NewEnqueuer(queue.NewMemoryStorage())
		require.NoError(t, err)
		_, err = enq.Enqueue(context.Background(), queue.Entry{})
		assert.ErrorIs(t, err, queue.ErrEmptyLabel)
	})

	t.Run("repository failure", func(t *testing.T) {
		t.Parallel()
		enq, err := queue.NewEnqueuer(failingRepo{})
		require.NoError(t, err)
		_, err = enq.Enqueue(context.Background(), queue.Entry{Label: "a"})
		assert.ErrorIs(t, err, queue.ErrFailedToCreate)
		assert.Equal(t, 1, strings.Count(err.Error(), queue.ErrFailedToCreate.Error()))
	})
}
