package errors

import "errors"

var (
	ErrNotFound = errors.New("scheduled event not found")

	ErrInvalidID = errors.New("invalid scheduled event ID format")

	ErrNothingToImport = errors.New("calendar contains no importable events")
)
