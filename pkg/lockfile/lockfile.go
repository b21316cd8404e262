package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// DefaultPollInterval is how often Acquire retries while waiting.
const DefaultPollInterval = 100 * time.Millisecond

// Lock is an exclusive, process-wide lock backed by a file. One Lock value
// holds the lock at most once; Acquire on a held Lock fails with
// ErrAlreadyLocked.
type Lock struct {
	path string
	poll time.Duration

	mu   sync.Mutex
	file *os.File
}

// Option configures a Lock.
type Option func(*Lock)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(l *Lock) {
		if d > 0 {
			l.poll = d
		}
	}
}

// New returns a lock on <dir>/<name>.lock. An empty dir means the OS temp dir.
func New(dir, name string, opts ...Option) *Lock {
	if dir == "" {
		dir = os.TempDir()
	}
	l := &Lock{path: filepath.Join(dir, name+".lock"), poll: DefaultPollInterval}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Acquire takes the lock. With wait <= 0 it fails immediately with
// ErrAlreadyLocked when another holder exists. With wait > 0 it retries until
// the lock is free, ErrLockTimeout after wait, or ctx is done.
func (l *Lock) Acquire(ctx context.Context, wait time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return ErrAlreadyLocked
	}

	var deadline time.Time
	if wait > 0 {
		deadline = time.Now().Add(wait)
	}
	for {
		f, err := tryLock(l.path)
		if err == nil {
			_ = f.Truncate(0)
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
			l.file = f
			return nil
		}
		if !errors.Is(err, ErrAlreadyLocked) {
			return fmt.Errorf("lockfile: %s: %w", l.path, err)
		}
		if wait <= 0 {
			return ErrAlreadyLocked
		}
		if !time.Now().Before(deadline) {
			return ErrLockTimeout
		}

		timer := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil
	return unlock(f, l.path)
}

// Held reports whether this Lock currently holds the file.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file != nil
}
