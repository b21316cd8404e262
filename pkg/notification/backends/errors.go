package backends

import "errors"

var (
	ErrTemplateNotFound = errors.New("notification template not found")
	ErrUnknownKind      = errors.New("unknown backend kind")
	ErrMissingDep       = errors.New("backend dependency missing")
	ErrInvalidFile      = errors.New("invalid backends file")
)
