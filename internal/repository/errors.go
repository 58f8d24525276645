package repository

import "errors"

var (
	// ErrNotFound means the requested row does not exist (or a delete affected no rows).
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry means a write violated a unique constraint.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

var (
	ErrUserNotFound  = ErrNotFound
	ErrListNotFound  = ErrNotFound
	ErrItemNotFound  = ErrNotFound
	ErrShareNotFound = ErrNotFound
)
