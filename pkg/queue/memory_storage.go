package queue

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStorage is an in-process Repository for tests and local runs.
type MemoryStorage struct {
	mu      sync.RWMutex
	nextID  int64
	batches map[int64]Batch
	now     func() time.Time
}

// NewMemoryStorage creates an empty in-memory batch store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		batches: make(map[int64]Batch),
		now:     time.Now,
	}
}

func (ms *MemoryStorage) CreateBatch(ctx context.Context, payload []byte) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.nextID++
	b := Batch{
		ID:        ms.nextID,
		Payload:   slices.Clone(payload),
		CreatedAt: ms.now(),
	}
	ms.batches[b.ID] = b
	return copyBatch(b), nil
}

func (ms *MemoryStorage) ListBatches(ctx context.Context) ([]Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]Batch, 0, len(ms.batches))
	for _, b := range ms.batches {
		out = append(out, copyBatch(b))
	}
	slices.SortFunc(out, func(a, b Batch) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (ms *MemoryStorage) DeleteBatch(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.batches[id]; !ok {
		return ErrBatchNotFound
	}
	delete(ms.batches, id)
	return nil
}

func (ms *MemoryStorage) CountBatches(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.batches), nil
}

func copyBatch(b Batch) Batch {
	b.Payload = slices.Clone(b.Payload)
	return b
}
