package listing

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoData is returned by Store.Load when nothing has been saved yet.
var ErrNoData = errors.New("no cached data")

// Store is the durable side of the cache: a single opaque value holding
// the serialized path map.
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
	Clear() error
	Close() error
}

// DefaultFilePath is the cache file used when none is configured.
func DefaultFilePath() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "apinav", "cache.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "apinav", "cache.json")
}

// DefaultBadgerDir is the badger directory used when none is configured.
func DefaultBadgerDir() string {
	return filepath.Join(filepath.Dir(DefaultFilePath()), "badger")
}

// FileStore keeps the value in a JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFilePath()
	}
	return &FileStore{path: path}
}

func (s *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoData
		}
		return nil, err
	}
	return data, nil
}

// Save writes to a temp file then renames it over the old one.
func (s *FileStore) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// MemoryStore is a Store for tests and throwaway sessions.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
	fail  error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, ErrNoData
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemoryStore) Save(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.data = append([]byte(nil), data...)
	s.saves++
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// FailWith makes every following Save return err.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

// Saves counts successful Save calls.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
