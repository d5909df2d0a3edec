package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	// ErrVersionConflict means the stored booking changed since it was read.
	ErrVersionConflict = errors.New("booking version changed concurrently")

	ErrDuplicateID = errors.New("booking id already exists")

	ErrLockTimeout = errors.New("timed out waiting for scheduling lock")
)
