// Package file implements db.Store as one JSON document per key in a directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/varsearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const (
	dirPerm  = 0o755
	filePerm = 0o600
)

// Store keeps each key in <dir>/<key>.json. Writes go to a temp file in the
// same directory and are renamed over the target.
type Store struct {
	dir string

	mu     sync.RWMutex
	closed bool
}

// NewStore creates the directory if missing and returns a Store rooted there.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, &db.Error{Op: db.OpMkdir, Key: dir, Err: err}
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Ping verifies the directory is still there.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	if !info.IsDir() {
		return &db.Error{Op: db.OpPing, Err: fmt.Errorf("%s is not a directory", s.dir)}
	}
	return nil
}

// Close marks the store closed. Further operations fail with db.ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// WaitForReady returns immediately: a local directory is either usable or not.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get reads the value stored at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, &db.Error{Op: db.OpGet, Key: key, Err: db.ErrClosed}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Key: key, Err: err}
	}
	return data, nil
}

// Set replaces the value at key atomically.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpSet, Key: key, Err: db.ErrClosed}
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return &db.Error{Op: db.OpSet, Key: key, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		cleanup()
		return &db.Error{Op: db.OpSet, Key: key, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return &db.Error{Op: db.OpSet, Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &db.Error{Op: db.OpSet, Key: key, Err: err}
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		cleanup()
		return &db.Error{Op: db.OpSet, Key: key, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return &db.Error{Op: db.OpRename, Key: key, Err: err}
	}
	return nil
}

// Del removes key. Missing keys are not an error.
func (s *Store) Del(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpDel, Key: key, Err: db.ErrClosed}
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &db.Error{Op: db.OpDel, Key: key, Err: err}
	}
	return nil
}

// path maps a key to its file. Colons are common in namespaced keys
// ("codex:saved-filters") but not portable in file names.
func (s *Store) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return "", fmt.Errorf("%w: %q", db.ErrInvalidKey, key)
	}
	name := strings.ReplaceAll(key, ":", "_") + ".json"
	return filepath.Join(s.dir, name), nil
}
