package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
	"github.com/hyperjump/almanac/internal/models"
)

var (
	// ErrUnsupportedVersion is returned for artifacts written by an incompatible builder.
	ErrUnsupportedVersion = errors.New("unsupported index artifact version")
	// ErrCorruptArtifact is returned when the artifact does not decode or its count is wrong.
	ErrCorruptArtifact = errors.New("corrupt index artifact")
)

// WriteArtifact writes art to path through a temporary file and rename, so readers
// never observe a partial artifact. Parent directories are created.
func WriteArtifact(path string, art *models.IndexArtifact) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}
	data, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads and validates the artifact at path. A missing file returns an
// error wrapping fs.ErrNotExist.
func LoadArtifact(path string) (*models.IndexArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	var art models.IndexArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if art.Version != models.ArtifactVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, art.Version)
	}
	if art.Count != len(art.Docs) {
		return nil, fmt.Errorf("%w: count %d, %d docs", ErrCorruptArtifact, art.Count, len(art.Docs))
	}
	return &art, nil
}
