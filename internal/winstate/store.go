// Package winstate persists the last known rectangle of each named window.
//
// The store is a best-effort cache: reads fall back to a caller-provided value
// and writes never report failure to the caller. Errors are logged.
package winstate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/1broseidon/winkeep/internal/platform"
)

const (
	keyPrefix = "window-state-"
	// field is the top-level JSON member holding the rectangle.
	field = "window-state"
)

// Key returns the persistence key for a window name.
func Key(windowName string) string {
	return keyPrefix + windowName
}

// NameFromKey strips the key prefix, returning false for foreign keys.
func NameFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, keyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, keyPrefix), true
}

// Store maps window keys to their last known rectangle.
type Store interface {
	// Get returns the stored rectangle, or fallback when it is absent,
	// unreadable or invalid.
	Get(key string, fallback platform.Rect) platform.Rect
	// Lookup is Get without a fallback; ok is false when nothing usable is stored.
	Lookup(key string) (platform.Rect, bool)
	// Set records r under key. Failures are logged and dropped.
	Set(key string, r platform.Rect)
}

type document struct {
	State *platform.Rect `json:"window-state"`
}

// FileStore keeps one JSON document per key in a directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, logger: logger}
}

// Dir returns the directory holding the state files.
func (s *FileStore) Dir() string {
	return s.dir
}

// Get implements Store.
func (s *FileStore) Get(key string, fallback platform.Rect) platform.Rect {
	if r, ok := s.Lookup(key); ok {
		return r
	}
	return fallback
}

// Lookup implements Store.
func (s *FileStore) Lookup(key string) (platform.Rect, bool) {
	path, err := s.path(key)
	if err != nil {
		s.logger.Warn("ignoring window state read", "key", key, "error", err)
		return platform.Rect{}, false
	}

	s.mu.Lock()
	data, err := os.ReadFile(path)
	s.mu.Unlock()
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read window state", "key", key, "path", path, "error", err)
		}
		return platform.Rect{}, false
	}

	r, err := decode(data)
	if err != nil {
		s.logger.Warn("discarding window state", "key", key, "path", path, "error", err)
		return platform.Rect{}, false
	}
	return r, true
}

// Set implements Store. The file is replaced atomically so concurrent readers
// never see a partial document; concurrent writers are last-writer-wins.
func (s *FileStore) Set(key string, r platform.Rect) {
	if err := s.write(key, r); err != nil {
		s.logger.Warn("failed to persist window state", "key", key, "error", err)
		return
	}
	s.logger.Debug("persisted window state", "key", key,
		"x", r.X, "y", r.Y, "width", r.Width, "height", r.Height)
}

func (s *FileStore) write(key string, r platform.Rect) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(document{State: &r}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode window state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Keys lists the stored keys in sorted order.
func (s *FileStore) Keys() ([]string, error) {
	s.mu.Lock()
	entries, err := os.ReadDir(s.dir)
	s.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list window states: %w", err)
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(out)
	return out, nil
}

func (s *FileStore) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// ValidateKey rejects keys that cannot be used as a file name.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("window state key is required")
	}
	if strings.ContainsAny(key, `/\`) || key != filepath.Base(key) {
		return fmt.Errorf("invalid window state key %q", key)
	}
	if key == "." || key == ".." || strings.Contains(key, "..") {
		return fmt.Errorf("invalid window state key %q", key)
	}
	return nil
}

func decode(data []byte) (platform.Rect, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return platform.Rect{}, fmt.Errorf("failed to parse window state: %w", err)
	}
	if doc.State == nil {
		return platform.Rect{}, fmt.Errorf("missing %q field", field)
	}
	if !doc.State.Valid() {
		return platform.Rect{}, fmt.Errorf("invalid geometry %dx%d", doc.State.Width, doc.State.Height)
	}
	return *doc.State, nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]platform.Rect
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]platform.Rect)}
}

// Get implements Store.
func (m *MemoryStore) Get(key string, fallback platform.Rect) platform.Rect {
	if r, ok := m.Lookup(key); ok {
		return r
	}
	return fallback
}

// Lookup implements Store.
func (m *MemoryStore) Lookup(key string) (platform.Rect, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.states[key]
	if !ok || !r.Valid() {
		return platform.Rect{}, false
	}
	return r, true
}

// Set implements Store.
func (m *MemoryStore) Set(key string, r platform.Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = r
}

// Keys lists the stored keys in sorted order.
func (m *MemoryStore) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.states))
	for k := range m.states {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}
