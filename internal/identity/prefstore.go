package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FilePrefStore is a PrefStore backed by a YAML file of string pairs.
// The file can be edited out-of-band, so reads treat a missing or
// unparseable file as empty rather than failing.
type FilePrefStore struct {
	path string
	mu   sync.Mutex
}

// NewFilePrefStore creates a preference store at the given path.
func NewFilePrefStore(path string) *FilePrefStore {
	return &FilePrefStore{path: path}
}

// Get reads a single preference value.
func (s *FilePrefStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs := s.read()
	v, ok := prefs[key]
	return v, ok
}

// Set writes a single preference value, preserving the others.
func (s *FilePrefStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs := s.read()
	prefs[key] = value
	return s.write(prefs)
}

func (s *FilePrefStore) read() map[string]string {
	prefs := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if err != nil {
		return prefs
	}
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return make(map[string]string)
	}
	return prefs
}

func (s *FilePrefStore) write(prefs map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create preference directory: %w", err)
	}
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	return os.WriteFile(s.path, data, 0600)
}

// MemPrefStore is an in-memory PrefStore for tests and ephemeral sessions.
type MemPrefStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemPrefStore creates an empty in-memory preference store.
func NewMemPrefStore() *MemPrefStore {
	return &MemPrefStore{values: make(map[string]string)}
}

// Get reads a value.
func (s *MemPrefStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set writes a value.
func (s *MemPrefStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
