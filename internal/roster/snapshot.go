package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SnapshotStore persists the full enrolled population. The whole
// snapshot is replaced on every save; there is no incremental log.
type SnapshotStore interface {
	// Load reads the durable snapshot. A missing snapshot is not an
	// error: it returns an empty population.
	Load(ctx context.Context) ([]Student, error)
	// Save rewrites the durable snapshot with the given population.
	Save(ctx context.Context, students []Student) error
}

// snapshotFile is the on-disk JSON envelope. The collection is keyed by
// "students" to stay readable alongside older enrollment tooling.
type snapshotFile struct {
	Students []Student `json:"students"`
}

// FileStore persists the roster as a single JSON file. Saves write to a
// temporary file in the same directory and rename it into place, so a
// crash mid-write never leaves a truncated snapshot behind.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed snapshot store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load(ctx context.Context) ([]Student, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", f.path, err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", f.path, err)
	}
	return snap.Students, nil
}

func (f *FileStore) Save(ctx context.Context, students []Student) error {
	data, err := json.MarshalIndent(snapshotFile{Students: students}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
