// Package repository contains persistence for solve results: a JSON file
// holding the last result, and an optional PostgreSQL solve history.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
)

// FileStore persists the last successful result to a single JSON file.
// This is process-wide, single-writer, last-writer-wins state: written at
// the end of every successful solve and read by GET.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save atomically replaces the stored result. The file is written to a
// temp path and renamed so a concurrent read never sees a torn write.
func (s *FileStore) Save(result model.OptimizeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("filestore: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("filestore: rename: %w", err)
	}
	return nil
}

// Load reads the stored result. The second return is false when no solve
// has been persisted yet.
func (s *FileStore) Load() (model.OptimizeResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.OptimizeResult{}, false, nil
	}
	if err != nil {
		return model.OptimizeResult{}, false, fmt.Errorf("filestore: read: %w", err)
	}

	var result model.OptimizeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return model.OptimizeResult{}, false, fmt.Errorf("filestore: unmarshal: %w", err)
	}
	return result, true, nil
}
