package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/notifykit/pkg/queue"
)

// Queue implements queue.Repository on the notification_queue_batches table.
type Queue struct {
	db DBTX
}

func NewQueue(db DBTX) *Queue { return &Queue{db: db} }

func (q *Queue) CreateBatch(ctx context.Context, payload []byte) (queue.Batch, error) {
	b := queue.Batch{Payload: payload}
	err := q.db.QueryRow(ctx,
		`INSERT INTO notification_queue_batches (payload) VALUES ($1) RETURNING id, created_at`, payload,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return queue.Batch{}, fmt.Errorf("insert batch: %w", err)
	}
	return b, nil
}

func (q *Queue) ListBatches(ctx context.Context) ([]queue.Batch, error) {
	rows, err := q.db.Query(ctx, `SELECT id, payload, created_at FROM notification_queue_batches ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (queue.Batch, error) {
		var b queue.Batch
		err := row.Scan(&b.ID, &b.Payload, &b.CreatedAt)
		return b, err
	})
}

func (q *Queue) DeleteBatch(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM notification_queue_batches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return queue.ErrBatchNotFound
	}
	return nil
}

func (q *Queue) CountBatches(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM notification_queue_batches`).Scan(&n)
	return n, err
}

var _ queue.Repository = (*Queue)(nil)
