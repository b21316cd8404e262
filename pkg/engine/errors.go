package engine

import "errors"

var (
	ErrInvalidWorkers = errors.New("workers must be at least 1")
	ErrPanic          = errors.New("panic during drain")
	ErrWorkerFailed   = errors.New("worker process failed")
	ErrMissingDep     = errors.New("engine dependency missing")
)
