// ABOUTME: Single-value durable slots used to remember the signed-in account
// ABOUTME: FileSlot persists a small TOML document with atomic replace; MemorySlot is for tests

package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrEmptyValue is returned by Set for an empty value. An empty slot and a
// slot holding "" are the same state, reached only through Clear.
var ErrEmptyValue = errors.New("session value must not be empty")

// Slot is a durable holder for one non-empty string value.
type Slot interface {
	// Get returns the stored value; ok is false when the slot is empty.
	Get() (value string, ok bool, err error)
	// Set stores value, replacing any previous one. Returns ErrEmptyValue for "".
	Set(value string) error
	// Clear empties the slot. Clearing an empty slot is not an error.
	Clear() error
}

// slotDocument is the on-disk layout of a FileSlot.
type slotDocument struct {
	Value   string    `toml:"value"`
	SavedAt time.Time `toml:"saved_at"`
}

// FileSlot stores its value in a TOML file. Writes go to a temporary file that
// is synced and renamed over the target, so a crash leaves either the old or
// the new value.
type FileSlot struct {
	path string
	mu   sync.Mutex
}

// NewFileSlot returns a slot backed by the file at path. The file is created on first Set.
func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

// Path returns the backing file location.
func (f *FileSlot) Path() string {
	return f.path
}

func (f *FileSlot) Get() (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading session file: %w", err)
	}

	var doc slotDocument
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return "", false, fmt.Errorf("parsing session file %s: %w", f.path, err)
	}
	if doc.Value == "" {
		return "", false, nil
	}
	return doc.Value, true, nil
}

func (f *FileSlot) Set(value string) error {
	if value == "" {
		return ErrEmptyValue
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(slotDocument{Value: value, SavedAt: time.Now().UTC()}); err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("creating temp session file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing session file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("setting session file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("replacing session file: %w", err)
	}
	return nil
}

func (f *FileSlot) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// MemorySlot is an in-process Slot for tests.
type MemorySlot struct {
	mu    sync.Mutex
	value string
}

// NewMemorySlot creates an empty MemorySlot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Get() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.value != "", nil
}

func (m *MemorySlot) Set(value string) error {
	if value == "" {
		return ErrEmptyValue
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
	return nil
}

func (m *MemorySlot) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = ""
	return nil
}
