package queue

import "errors"

var (
	ErrRepositoryNil      = errors.New("repository cannot be nil")
	ErrNoItemsToEnqueue   = errors.New("no items to enqueue")
	ErrEmptyLabel         = errors.New("queue entry has an empty notice type label")
	ErrUnsupportedVersion = errors.New("unsupported batch payload version")
	ErrMalformedPayload   = errors.New("malformed batch payload")
	ErrUnsupportedValue   = errors.New("context value cannot be queued")
	ErrBatchNotFound      = errors.New("batch not found")
	ErrFailedToCreate     = errors.New("failed to create batch")
)
