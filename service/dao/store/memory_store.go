package store

import (
	"context"
	"sync"

	"github.com/viant/mission/service/dao"
)

// MemoryStore is a generic in-memory implementation of dao.Service.
// It keeps entities of type *T mapped by a comparable key K.
// The key is obtained from the supplied keySelector function.
//
// Records implementing dao.Versioned are version checked on Save. When a
// clone function is supplied the store never shares pointers with callers.
type MemoryStore[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	order       []K
	keySelector func(*T) K
	clone       func(*T) *T
	filter      func(*T, []*dao.Parameter) bool
}

// MemoryOption customises MemoryStore
type MemoryOption[K comparable, T any] func(s *MemoryStore[K, T])

// WithClone sets record copy function
func WithClone[K comparable, T any](fn func(*T) *T) MemoryOption[K, T] {
	return func(s *MemoryStore[K, T]) {
		s.clone = fn
	}
}

// WithFilter sets List parameter filter
func WithFilter[K comparable, T any](fn func(*T, []*dao.Parameter) bool) MemoryOption[K, T] {
	return func(s *MemoryStore[K, T]) {
		s.filter = fn
	}
}

// NewMemoryStore creates a new MemoryStore.
// keySelector extracts the entity key (usually the ID field) from a value.
func NewMemoryStore[K comparable, T any](keySelector func(*T) K, opts ...MemoryOption[K, T]) *MemoryStore[K, T] {
	ret := &MemoryStore[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *MemoryStore[K, T]) copy(v *T) *T {
	if s.clone == nil || v == nil {
		return v
	}
	return s.clone(v)
}

// Save stores or overwrites a record.
func (s *MemoryStore[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	var zero K
	if key == zero {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.records[key]
	if !ok {
		s.order = append(s.order, key)
	}
	if err := dao.CheckVersion(stored, v); err != nil {
		return err
	}
	s.records[key] = s.copy(v)
	return nil
}

// Load returns a record by key.
func (s *MemoryStore[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return s.copy(v), nil
}

// Delete removes a record.
func (s *MemoryStore[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return dao.ErrNotFound
	}
	delete(s.records, key)
	for i, candidate := range s.order {
		if candidate == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns stored records matching parameters in insertion order.
func (s *MemoryStore[K, T]) List(_ context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, key := range s.order {
		v := s.records[key]
		if s.filter != nil && !s.filter(v, parameters) {
			continue
		}
		out = append(out, s.copy(v))
	}
	return out, nil
}
