package errors

import "errors"

var (
	ErrNotFound = errors.New("crew member not found")

	ErrDuplicateID = errors.New("crew member id already exists")
)
