package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/mission/service/dao"
)

// FSStore is an afs backed implementation of dao.Service persisting each
// record as a JSON file named after its key.
type FSStore[T any] struct {
	basePath    string
	fs          afs.Service
	mu          sync.RWMutex
	keySelector func(*T) string
	filter      func(*T, []*dao.Parameter) bool
}

// FSOption customises FSStore
type FSOption[T any] func(s *FSStore[T])

// WithFSFilter sets List parameter filter
func WithFSFilter[T any](fn func(*T, []*dao.Parameter) bool) FSOption[T] {
	return func(s *FSStore[T]) {
		s.filter = fn
	}
}

// NewFSStore creates a file store rooted at basePath (any afs supported URL).
func NewFSStore[T any](basePath string, keySelector func(*T) string, opts ...FSOption[T]) (*FSStore[T], error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	fs := afs.New()
	ctx := context.Background()
	basePath = url.Normalize(basePath, file.Scheme)
	exists, _ := fs.Exists(ctx, basePath)
	if !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	ret := &FSStore[T]{basePath: basePath, fs: fs, keySelector: keySelector}
	for _, opt := range opts {
		opt(ret)
	}
	return ret, nil
}

func (s *FSStore[T]) recordPath(id string) string {
	return url.Join(s.basePath, id+".json")
}

func (s *FSStore[T]) load(ctx context.Context, id string) (*T, error) {
	filePath := s.recordPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if %s exists: %w", id, err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	var ret T
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", filePath, err)
	}
	return &ret, nil
}

// Save persists a record, version checked when T implements dao.Versioned.
func (s *FSStore[T]) Save(ctx context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	id := s.keySelector(v)
	if id == "" || strings.ContainsAny(id, "/\\") {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, err := s.load(ctx, id)
	if err != nil && err != dao.ErrNotFound {
		return err
	}
	version := 0
	if versioned, ok := any(v).(dao.Versioned); ok {
		version = versioned.GetVersion()
	}
	if err = dao.CheckVersion(stored, v); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.restore(v, version)
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}
	filePath := s.recordPath(id)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		s.restore(v, version)
		return fmt.Errorf("failed to save %s: %w", filePath, err)
	}
	return nil
}

func (s *FSStore[T]) restore(v *T, version int) {
	if versioned, ok := any(v).(dao.Versioned); ok {
		versioned.SetVersion(version)
	}
}

// Load retrieves a record by id.
func (s *FSStore[T]) Load(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(ctx, id)
}

// Delete removes a record file.
func (s *FSStore[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	filePath := s.recordPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if %s exists: %w", id, err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	return s.fs.Delete(ctx, filePath)
}

// List returns records matching parameters ordered by file name.
func (s *FSStore[T]) List(ctx context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.basePath, err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name() < objects[j].Name() })
	var ret []*T
	for _, object := range objects {
		if object.IsDir() || path.Ext(object.Name()) != ".json" {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", object.URL(), err)
		}
		var record T
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", object.URL(), err)
		}
		if s.filter != nil && !s.filter(&record, parameters) {
			continue
		}
		ret = append(ret, &record)
	}
	return ret, nil
}
