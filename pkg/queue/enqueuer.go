package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Enqueuer serializes delivery requests and stores them as batch rows.
type Enqueuer struct {
	repo   EnqueuerRepository
	logger *slog.Logger
}

// NewEnqueuer creates a new Enqueuer.
func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	e := &Enqueuer{repo: repo, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Enqueue stores entries as a single batch row. Entries without recipients
// are kept; the drain treats them as no-ops.
func (e *Enqueuer) Enqueue(ctx context.Context, entries ...Entry) (Batch, error) {
	if len(entries) == 0 {
		return Batch{}, ErrNoItemsToEnqueue
	}

	data, err := Encode(entries)
	if err != nil {
		return Batch{}, fmt.Errorf("encode batch: %w", err)
	}

	batch, err := e.repo.CreateBatch(ctx, data)
	if err != nil {
		return Batch{}, fmt.Errorf("%w: %w", ErrFailedToCreate, err)
	}

	e.logger.DebugContext(ctx, "batch queued",
		logger.BatchID(batch.ID),
		slog.Int("entries", len(entries)),
		logger.NoticeType(entries[0].Label),
	)
	return batch, nil
}
