package lockfile

import "errors"

var (
	ErrAlreadyLocked = errors.New("lock is held by another process")
	ErrLockTimeout   = errors.New("timed out waiting for lock")
)
