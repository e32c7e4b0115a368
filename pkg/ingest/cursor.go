package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CursorStore remembers how far an upload got, so an interrupted run can
// resume without resending completed batches.
type CursorStore interface {
	Load(key string) (int, error)
	// Save advances the cursor; implementations must never move it back.
	Save(key string, next int) error
}

// FileSignature identifies a source file by name, size and mtime. A changed
// file gets a fresh cursor.
func FileSignature(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s|%d|%d", filepath.Base(path), info.Size(), info.ModTime().Unix()), nil
}

// FileCursorStore keeps cursors in one JSON file.
type FileCursorStore struct {
	path string

	mu     sync.Mutex
	loaded bool
	data   map[string]int
}

func NewFileCursorStore(path string) *FileCursorStore {
	return &FileCursorStore{path: path}
}

func (s *FileCursorStore) load() error {
	if s.loaded {
		return nil
	}
	s.data = make(map[string]int)
	s.loaded = true

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, &s.data)
}

func (s *FileCursorStore) Load(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return 0, err
	}
	return s.data[key], nil
}

func (s *FileCursorStore) Save(key string, next int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	if next <= s.data[key] {
		return nil
	}
	s.data[key] = next

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Reset drops the cursor for one file, forcing a full re-upload.
func (s *FileCursorStore) Reset(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// NopCursorStore disables resume.
type NopCursorStore struct{}

func (NopCursorStore) Load(string) (int, error)  { return 0, nil }
func (NopCursorStore) Save(string, int) error    { return nil }
