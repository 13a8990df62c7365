// Package credential persists the single API key the user enters.
package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store loads, saves and clears the API key. Load returns "" when nothing is
// stored.
type Store interface {
	Load() (string, error)
	Save(key string) error
	Clear() error
}

// DefaultPath is the credential file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(dir, "pdf-chapters", "credential.yaml"), nil
}

type fileContents struct {
	GeminiAPIKey string `yaml:"gemini_api_key"`
}

// FileStore keeps the key in a small YAML file. Every Save and Clear writes
// through immediately.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading credential file: %w", err)
	}
	var c fileContents
	if err := yaml.Unmarshal(b, &c); err != nil {
		return "", fmt.Errorf("parsing credential file %s: %w", s.path, err)
	}
	return strings.TrimSpace(c.GeminiAPIKey), nil
}

func (s *FileStore) Save(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credential dir: %w", err)
	}
	b, err := yaml.Marshal(fileContents{GeminiAPIKey: key})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing credential file: %w", err)
	}
	return nil
}

// MemoryStore keeps the key in memory only.
type MemoryStore struct {
	mu  sync.Mutex
	key string
}

func NewMemoryStore(key string) *MemoryStore {
	return &MemoryStore{key: key}
}

func (m *MemoryStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.TrimSpace(m.key), nil
}

func (m *MemoryStore) Save(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = key
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = ""
	return nil
}
