package queue

import "context"

// EnqueuerRepository persists new batch rows.
type EnqueuerRepository interface {
	CreateBatch(ctx context.Context, payload []byte) (Batch, error)
}

// Repository is the full batch store used by the drain engine.
// ListBatches returns rows ordered oldest first by id.
type Repository interface {
	EnqueuerRepository
	ListBatches(ctx context.Context) ([]Batch, error)
	DeleteBatch(ctx context.Context, id int64) error
	CountBatches(ctx context.Context) (int, error)
}
