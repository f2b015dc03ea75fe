package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/i474232898/park-factors/internal/factors"
)

// DefaultPath is where the site build and handlers expect the document.
const DefaultPath = "data/park-factors.json"

// FileStore keeps the result as a JSON document on disk. Writes go to a
// temporary file in the same directory and are renamed over the target.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore at path, or DefaultPath when empty.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the document. When it carries no last_updated, the file's
// modification time stands in.
func (s *FileStore) Load(_ context.Context) (factors.Result, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return factors.Result{}, ErrNotFound
	}
	if err != nil {
		return factors.Result{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	r, err := factors.Unmarshal(data)
	if err != nil {
		return factors.Result{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	if r.LastUpdated.IsZero() {
		if info, statErr := os.Stat(s.path); statErr == nil {
			r.LastUpdated = info.ModTime().UTC()
		}
	}
	return r, nil
}

// Save writes r to a temp file and renames it into place.
func (s *FileStore) Save(_ context.Context, r factors.Result) error {
	data, err := factors.Marshal(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".park-factors-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
