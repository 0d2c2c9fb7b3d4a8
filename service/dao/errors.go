package dao

import "errors"

// Common, reusable DAO errors.  Using sentinel variables allows callers to
// detect error conditions via errors.Is/As instead of string comparisons.

var (
	// ErrNotFound is returned when the requested entity does not exist in the
	// underlying storage.
	ErrNotFound = errors.New("dao: not found")

	// ErrInvalidID indicates that the supplied ID/key is empty or otherwise
	// invalid.
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrNilEntity is returned when the caller attempts to persist a nil
	// pointer.
	ErrNilEntity = errors.New("dao: nil entity")

	// ErrConcurrency is returned when a save carries a stale version, i.e.
	// another writer updated the record since it was loaded.
	ErrConcurrency = errors.New("dao: concurrent modification")
)
