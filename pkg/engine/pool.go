package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Pool runs the parts of one entry and merges their counts.
type Pool interface {
	Run(ctx context.Context, parts []Part) (notification.Counts, error)
	Workers() int
}

// Serial runs parts one after another in the calling goroutine.
type Serial struct {
	Runner Runner
}

func (p Serial) Workers() int { return 1 }

func (p Serial) Run(ctx context.Context, parts []Part) (notification.Counts, error) {
	sent := notification.Counts{}
	for _, part := range parts {
		counts, err := p.Runner.SendPart(ctx, part)
		sent.Add(counts)
		if err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// ThreadPool runs parts on at most workers goroutines. The first failure
// cancels the parts that have not started.
type ThreadPool struct {
	runner  Runner
	workers int
}

func NewThreadPool(runner Runner, workers int) (*ThreadPool, error) {
	if workers < 1 {
		return nil, ErrInvalidWorkers
	}
	return &ThreadPool{runner: runner, workers: workers}, nil
}

func (p *ThreadPool) Workers() int { return p.workers }

func (p *ThreadPool) Run(ctx context.Context, parts []Part) (notification.Counts, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	var mu sync.Mutex
	sent := notification.Counts{}
	for _, part := range parts {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v\n%s", ErrPanic, r, debug.Stack())
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			counts, err := p.runner.SendPart(gctx, part)
			mu.Lock()
			sent.Add(counts)
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()
	return sent, err
}
