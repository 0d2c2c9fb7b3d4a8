package dao

import (
	"context"
)

// Service represents generic data access service
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Versioned is implemented by records using optimistic concurrency.
// A store rejects a save whose version differs from the stored one with
// ErrConcurrency and bumps the version of accepted saves.
type Versioned interface {
	GetVersion() int
	SetVersion(version int)
}

// CheckVersion validates candidate against stored version and advances it.
// stored is nil for new records.
func CheckVersion[T any](stored, candidate *T) error {
	next, ok := any(candidate).(Versioned)
	if !ok {
		return nil
	}
	current := 0
	if stored != nil {
		if prev, ok := any(stored).(Versioned); ok {
			current = prev.GetVersion()
			if next.GetVersion() != current {
				return ErrConcurrency
			}
		}
	}
	next.SetVersion(current + 1)
	return nil
}
