package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/queue"
)

// CommandFunc builds the child process for one part.
type CommandFunc func(ctx context.Context) *exec.Cmd

// SelfCommand re-executes the running binary with args.
func SelfCommand(args ...string) (CommandFunc, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	return func(ctx context.Context) *exec.Cmd {
		return exec.CommandContext(ctx, exe, args...)
	}, nil
}

// ProcessPool runs each part in its own child process, at most workers at a
// time. The part goes to the child's stdin in the queue payload format and
// the child writes its counts as JSON to stdout. Children open their own
// connections; exec never carries the parent's sockets since Go opens every
// descriptor close-on-exec.
type ProcessPool struct {
	command CommandFunc
	workers int
}

func NewProcessPool(command CommandFunc, workers int) (*ProcessPool, error) {
	if workers < 1 {
		return nil, ErrInvalidWorkers
	}
	if command == nil {
		return nil, fmt.Errorf("%w: process command", ErrMissingDep)
	}
	return &ProcessPool{command: command, workers: workers}, nil
}

func (p *ProcessPool) Workers() int { return p.workers }

func (p *ProcessPool) Run(ctx context.Context, parts []Part) (notification.Counts, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	var mu sync.Mutex
	sent := notification.Counts{}
	for _, part := range parts {
		g.Go(func() error {
			counts, err := p.runPart(gctx, part)
			mu.Lock()
			sent.Add(counts)
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()
	return sent, err
}

func (p *ProcessPool) runPart(ctx context.Context, part Part) (notification.Counts, error) {
	payload, err := queue.Encode([]queue.Entry{part.Entry()})
	if err != nil {
		return nil, fmt.Errorf("encode part: %w", err)
	}

	var stdout bytes.Buffer
	cmd := p.command(ctx)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	runErr := cmd.Run()

	// A child that failed part way may still report what it sent.
	var counts notification.Counts
	if stdout.Len() > 0 {
		if err := json.Unmarshal(stdout.Bytes(), &counts); err != nil && runErr == nil {
			return nil, fmt.Errorf("%w: decode counts: %w", ErrWorkerFailed, err)
		}
	}
	if runErr != nil {
		return counts, errors.Join(ErrWorkerFailed, runErr)
	}
	return counts, nil
}

// ServeChunk is the child side of ProcessPool: it reads one part from r, runs
// it and writes the counts to w. Counts are written even when the part fails.
func ServeChunk(ctx context.Context, r io.Reader, w io.Writer, runner Runner) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read part: %w", err)
	}
	entries, err := queue.Decode(raw)
	if err != nil {
		return err
	}
	if len(entries) != 1 {
		return fmt.Errorf("%w: expected one entry, got %d", queue.ErrMalformedPayload, len(entries))
	}
	e := entries[0]

	counts, runErr := runner.SendPart(ctx, Part{
		Recipients: e.Recipients,
		Label:      e.Label,
		Context:    e.Context,
		OnSite:     e.OnSite,
		Sender:     e.Sender,
	})
	if counts == nil {
		counts = notification.Counts{}
	}
	if err := json.NewEncoder(w).Encode(counts); err != nil {
		return errors.Join(runErr, fmt.Errorf("write counts: %w", err))
	}
	return runErr
}
