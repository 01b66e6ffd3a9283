// Package storage defines the persistence interface for the index entry mirror.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/almanac/internal/models"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("entry not found")

// Storage mirrors the entries of an index artifact for paged and filtered lookups.
type Storage interface {
	// ReplaceEntries swaps the stored entry set for the artifact's, atomically.
	ReplaceEntries(ctx context.Context, art *models.IndexArtifact) error
	GetEntry(ctx context.Context, id string) (*models.SearchIndexEntry, error)
	// ListEntries returns entries in artifact order. An empty typ matches every type.
	ListEntries(ctx context.Context, typ string, offset, limit int) ([]*models.SearchIndexEntry, error)
	CountEntries(ctx context.Context, typ string) (int64, error)
	// GeneratedAt returns the generation time of the mirrored artifact (zero when empty).
	GeneratedAt(ctx context.Context) (time.Time, error)

	Close() error
}
