// Package file provides a filesystem-backed progress store, storing one
// JSON snapshot per wizard ID.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sangamhq/vivah/pkg/domain"
)

// Store implements ports.ProgressStore using the local filesystem.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".vivah/wizards".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".vivah", "wizards")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(wizardID string) string {
	return filepath.Join(s.BasePath, wizardID+".json")
}

// Save persists the snapshot to a JSON file atomically: write to a temp
// file, fsync, then rename into place.
func (s *Store) Save(ctx context.Context, wizardID string, state *domain.State) error {
	if wizardID == "" {
		return fmt.Errorf("wizardID cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+wizardID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(wizardID)); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}
	return nil
}

// Load reads a snapshot. A missing file maps to ErrSnapshotNotFound; an
// unparseable file is reported as an error and treated as absent by the
// controller.
func (s *Store) Load(ctx context.Context, wizardID string) (*domain.State, error) {
	data, err := os.ReadFile(s.path(wizardID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("corrupt snapshot for %s: %w", wizardID, err)
	}
	return &state, nil
}

// Clear removes the snapshot file. Removing a missing snapshot is not
// an error.
func (s *Store) Clear(ctx context.Context, wizardID string) error {
	err := os.Remove(s.path(wizardID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return nil
}

// List returns the wizard IDs with a snapshot file.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
