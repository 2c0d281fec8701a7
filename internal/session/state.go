package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Keys for durable local persistence. Per-language buffers get their
// own slot so switching languages round-trips in-progress code.
const (
	keyLanguage = "editor-language"
	keyTheme    = "editor-theme"
	keyFontSize = "editor-font-size"
)

func bufferKey(languageID string) string {
	return "editor-code-" + languageID
}

// LocalStore is synchronous key-value string storage scoped to one
// session host (a state file for the CLI, memory for server-hosted
// sessions). Single writer, no locking needed by callers.
type LocalStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// MemStore is an in-memory LocalStore.
type MemStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

func (m *MemStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *MemStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

// FileStore is a LocalStore backed by a YAML file, written through on
// every mutation. It persists editor preferences and per-language
// buffers across CLI invocations.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStore opens (or creates) the state file at path.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(filepath.Clean(path))
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fs.values); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	if fs.values == nil {
		fs.values = make(map[string]string)
	}
	return fs, nil
}

func (f *FileStore) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *FileStore) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	f.flush()
}

func (f *FileStore) Delete(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	f.flush()
}

// flush writes the whole map; the file is small (preferences plus a
// handful of buffers) so rewriting beats partial updates.
func (f *FileStore) flush() {
	data, err := yaml.Marshal(f.values)
	if err != nil {
		return
	}
	if dir := filepath.Dir(f.path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	_ = os.WriteFile(f.path, data, 0o600)
}
