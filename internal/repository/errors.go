package repository

import "errors"

var (
	// ErrNotFound is returned by every backend when a record is absent.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique key already exists.
	ErrConflict = errors.New("record already exists")
)
