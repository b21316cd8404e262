package queue

import "log/slog"

// EnqueuerOption configures an Enqueuer.
type EnqueuerOption func(*Enqueuer)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) EnqueuerOption {
	return func(e *Enqueuer) {
		if l != nil {
			e.logger = l
		}
	}
}
