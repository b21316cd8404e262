package engine

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

type batchKey struct{}

func withBatch(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, batchKey{}, id)
}

// BatchFromContext returns the id of the batch being drained.
func BatchFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(batchKey{}).(int64)
	return id, ok
}

// LogBatchID is a logger.ContextExtractor that tags records with the batch
// being drained, so warnings from deeper layers can be traced to a batch.
func LogBatchID(ctx context.Context) (slog.Attr, bool) {
	id, ok := BatchFromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return logger.BatchID(id), true
}

var _ logger.ContextExtractor = LogBatchID
