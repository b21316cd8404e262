package pgstore_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/notification/pgstore"
	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/pkg/queue"
)

// testPool returns a pool bound to a fresh, migrated schema. It runs against
// a real server when PG_TEST_URL is set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("PG_TEST_URL")
	if url == "" {
		t.Skip("PG_TEST_URL not set")
	}
	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString:  url,
		MaxOpenConns:      4,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   time.Minute,
		MaxConnLifetime:   time.Hour,
		RetryAttempts:     1,
		MigrationsTable:   "notification_migrations",
	}

	admin, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(admin.Close)

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE") })

	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	cfg.ConnectionString = url + sep + "search_path=" + schema
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, nil))
	return pool
}

func TestStoreLive(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	s := pgstore.New(pool)

	require.NoError(t, s.CreateNoticeType(ctx, notification.NoticeType{Label: "reply", Display: "Reply", Default: 2}))

	t.Run("create setting keeps the first row", func(t *testing.T) {
		first, err := s.CreateSetting(ctx, notification.Setting{UserID: 1, NoticeType: "reply", Medium: "0", Send: true})
		require.NoError(t, err)
		assert.True(t, first.Send)

		second, err := s.CreateSetting(ctx, notification.Setting{UserID: 1, NoticeType: "reply", Medium: "0", Send: false})
		require.NoError(t, err)
		assert.True(t, second.Send)

		require.NoError(t, s.SaveSetting(ctx, notification.Setting{UserID: 1, NoticeType: "reply", Medium: "0", Send: false}))
		got, err := s.GetSetting(ctx, 1, "reply", "0")
		require.NoError(t, err)
		assert.False(t, got.Send)

		_, err = s.GetSetting(ctx, 2, "reply", "0")
		assert.ErrorIs(t, err, notification.ErrSettingNotFound)
	})

	t.Run("uid claimed once and trimmed oldest first", func(t *testing.T) {
		for _, uid := range []string{"u1", "u2", "u3"} {
			ok, err := s.ClaimUID(ctx, 7, uid)
			require.NoError(t, err)
			assert.True(t, ok, uid)
		}
		ok, err := s.ClaimUID(ctx, 7, "u1")
		require.NoError(t, err)
		assert.False(t, ok, "second claim must fail")

		ok, err = s.ClaimUID(ctx, 8, "u1")
		require.NoError(t, err)
		assert.True(t, ok, "uid is scoped per recipient")

		n, err := s.TrimUIDs(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		count, err := s.CountUIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		// u1 and u2 of recipient 7 were the oldest rows.
		ok, err = s.ClaimUID(ctx, 7, "u1")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = s.ClaimUID(ctx, 7, "u3")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("observation is unique", func(t *testing.T) {
		target := notification.Target{Type: "post", ID: "42"}
		_, err := s.CreateObservation(ctx, notification.ObservedItem{UserID: 1, Target: target, NoticeType: "reply", Signal: "post_save"})
		require.NoError(t, err)
		_, err = s.CreateObservation(ctx, notification.ObservedItem{UserID: 1, Target: target, NoticeType: "reply", Signal: "post_save"})
		assert.ErrorIs(t, err, notification.ErrAlreadyObserving)

		require.NoError(t, s.DeleteObservation(ctx, target, 1, "post_save"))
		assert.ErrorIs(t, s.DeleteObservation(ctx, target, 1, "post_save"), notification.ErrNotObserving)
	})
}

func TestQueueLive(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	q := pgstore.NewQueue(pool)

	a, err := q.CreateBatch(ctx, []byte("a"))
	require.NoError(t, err)
	_, err = q.CreateBatch(ctx, []byte("b"))
	require.NoError(t, err)

	batches, err := q.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, a.ID, batches[0].ID)
	assert.Equal(t, []byte("b"), batches[1].Payload)

	require.NoError(t, q.DeleteBatch(ctx, a.ID))
	assert.ErrorIs(t, q.DeleteBatch(ctx, a.ID), queue.ErrBatchNotFound)

	n, err := q.CountBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = q.CreateBatch(cancelled, []byte("c"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, queue.ErrFailedToCreate)
}
