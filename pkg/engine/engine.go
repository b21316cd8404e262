package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/notifykit/pkg/lockfile"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/queue"
)

const tracerName = "github.com/dmitrymomot/notifykit/pkg/engine"

// Locker is the single-instance lock guarding a drain.
type Locker interface {
	Acquire(ctx context.Context, wait time.Duration) error
	Release() error
}

// Report summarises one drain pass.
type Report struct {
	Batches int
	Sent    notification.Counts
	Trimmed int
	Elapsed time.Duration
	// Skipped is set when the lock was not acquired.
	Skipped string
	// Err is the error that aborted the pass, if any.
	Err error
}

// Engine drains queued batches.
type Engine struct {
	lock    Locker
	repo    queue.Repository
	uids    notification.UIDStore
	pool    Pool
	alerter Alerter
	tracer  trace.Tracer
	logger  *slog.Logger

	lockWait   time.Duration
	uidMaxSize int
	siteName   string
}

type Option func(*Engine)

func WithAlerter(a Alerter) Option {
	return func(e *Engine) {
		if a != nil {
			e.alerter = a
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine. The lock, repository, ledger and pool are required.
func New(cfg Config, lock Locker, repo queue.Repository, uids notification.UIDStore, pool Pool, opts ...Option) (*Engine, error) {
	if lock == nil || repo == nil || uids == nil || pool == nil {
		return nil, fmt.Errorf("%w: engine needs a lock, a repository, a uid store and a pool", ErrMissingDep)
	}
	e := &Engine{
		lock:       lock,
		repo:       repo,
		uids:       uids,
		pool:       pool,
		alerter:    noopAlerter{},
		tracer:     otel.Tracer(tracerName),
		logger:     slog.Default(),
		lockWait:   cfg.LockWait,
		uidMaxSize: cfg.UIDMaxSize,
		siteName:   cfg.SiteName,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SendAll runs one drain pass: lock, deliver every batch oldest first, trim
// the notice uid ledger, release. Lock contention is not an error; the pass
// returns early with Report.Skipped set. A failure while draining stops the
// pass, is logged at critical level and sent to the alerter; batches not yet
// deleted are retried on the next pass.
func (e *Engine) SendAll(ctx context.Context) Report {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "notification.send_all",
		trace.WithAttributes(attribute.Int("notification.workers", e.pool.Workers())),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	rep := Report{Sent: notification.Counts{}}

	e.logger.DebugContext(ctx, "acquiring lock")
	if err := e.lock.Acquire(ctx, e.lockWait); err != nil {
		switch {
		case errors.Is(err, lockfile.ErrAlreadyLocked):
			rep.Skipped = "lock already in place"
		case errors.Is(err, lockfile.ErrLockTimeout):
			rep.Skipped = "waiting for the lock timed out"
		default:
			rep.Err = err
			e.logger.ErrorContext(ctx, "failed to acquire lock", logger.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return rep
		}
		e.logger.DebugContext(ctx, rep.Skipped+", quitting")
		span.SetAttributes(attribute.String("notification.skipped", rep.Skipped))
		return rep
	}
	e.logger.DebugContext(ctx, "acquired lock")

	func() {
		defer func() {
			e.logger.DebugContext(ctx, "releasing lock")
			if err := e.lock.Release(); err != nil {
				e.logger.ErrorContext(ctx, "failed to release lock", logger.Error(err))
			}
		}()

		if err := e.drain(ctx, &rep); err != nil {
			rep.Err = err
			e.fail(ctx, err)
			return
		}
		if err := e.trim(ctx, &rep); err != nil {
			rep.Err = err
			e.fail(ctx, err)
		}
	}()

	rep.Elapsed = time.Since(start)
	span.SetAttributes(
		attribute.Int("notification.batches", rep.Batches),
		attribute.Int("notification.sent", rep.Sent.Total()),
		attribute.Int("notification.trimmed", rep.Trimmed),
	)
	if rep.Err != nil {
		span.RecordError(rep.Err)
		span.SetStatus(codes.Error, rep.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	attrs := []slog.Attr{
		slog.Int("batches", rep.Batches),
		slog.Any("sent", map[string]int(rep.Sent)),
		logger.Workers(e.pool.Workers()),
		logger.Duration(rep.Elapsed),
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "drain finished", attrs...)
	return rep
}

func (e *Engine) drain(ctx context.Context, rep *Report) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, r, debug.Stack())
		}
	}()

	batches, err := e.repo.ListBatches(ctx)
	if err != nil {
		return fmt.Errorf("list batches: %w", err)
	}
	for _, b := range batches {
		entries, err := b.Entries()
		if err != nil {
			return fmt.Errorf("batch %d: %w", b.ID, err)
		}
		bctx := withBatch(ctx, b.ID)
		for _, entry := range entries {
			counts, err := e.pool.Run(bctx, Split(entry, e.pool.Workers()))
			rep.Sent.Add(counts)
			if err != nil {
				return fmt.Errorf("batch %d: %s: %w", b.ID, entry.Label, err)
			}
		}
		if err := e.repo.DeleteBatch(ctx, b.ID); err != nil {
			return fmt.Errorf("delete batch %d: %w", b.ID, err)
		}
		rep.Batches++
		e.logger.DebugContext(ctx, "batch delivered", logger.BatchID(b.ID))
	}
	return nil
}

func (e *Engine) trim(ctx context.Context, rep *Report) error {
	count, err := e.uids.CountUIDs(ctx)
	if err != nil {
		return fmt.Errorf("count notice uids: %w", err)
	}
	step := TrimStep(count, e.uidMaxSize)
	if step == 0 {
		return nil
	}
	e.logger.DebugContext(ctx, "trimming notice uid ledger", slog.Int("size", count), slog.Int("step", step))
	n, err := e.uids.TrimUIDs(ctx, step)
	if err != nil {
		return fmt.Errorf("trim notice uids: %w", err)
	}
	rep.Trimmed = n
	return nil
}

func (e *Engine) fail(ctx context.Context, err error) {
	logger.Critical(ctx, e.logger, "an exception occurred while emitting notices", logger.Error(err))
	subject := fmt.Sprintf("[%s emit_notices] %v", e.siteName, firstLine(err.Error()))
	if aerr := e.alerter.Alert(ctx, subject, err.Error()); aerr != nil {
		e.logger.ErrorContext(ctx, "failed to send alert", logger.Error(aerr))
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
