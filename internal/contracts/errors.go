package contracts

import "errors"

var (
	// ErrInvalidArgument marks caller errors such as a non-positive year
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks a missing entity
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks a missing, unknown or expired session
	ErrUnauthorized = errors.New("unauthorized")
	// ErrReadOnly marks write operations against a read-only record source
	ErrReadOnly = errors.New("record source is read-only")
)
