package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Mirror keys.
const (
	TokenKey = "voterToken"
	VoterKey = "voterData"
)

// Persistence is the key-value mirror the store shadows its state into.
// Get reports ok=false for a missing key.
type Persistence interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryPersistence keeps the mirror in process memory.
type MemoryPersistence struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryPersistence creates an empty in-memory mirror.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{data: make(map[string]string)}
}

func (m *MemoryPersistence) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryPersistence) Set(key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryPersistence) Remove(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// FilePersistence stores the mirror as a JSON object in a single file.
// The file is rewritten on every change and removed when it becomes empty.
type FilePersistence struct {
	mu   sync.Mutex
	path string
}

// NewFilePersistence returns a mirror backed by the file at path.
func NewFilePersistence(path string) *FilePersistence {
	return &FilePersistence{path: path}
}

func (f *FilePersistence) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *FilePersistence) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.read()
	if err != nil {
		return err
	}
	data[key] = value
	return f.write(data)
}

func (f *FilePersistence) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return f.write(data)
}

func (f *FilePersistence) read() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	data := make(map[string]string)
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding session file: %w", err)
	}
	return data, nil
}

func (f *FilePersistence) write(data map[string]string) error {
	if len(data) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(f.path, raw, 0o600)
}
