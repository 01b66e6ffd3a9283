// Package indexer derives search index entries from documents and writes the index artifact.
package indexer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/metrics"
	"github.com/hyperjump/almanac/internal/models"
	"github.com/hyperjump/almanac/internal/storage"
	"github.com/hyperjump/almanac/pkg/utils"
	"go.uber.org/zap"
)

// DocumentSource lists the documents of a content subtree.
type DocumentSource interface {
	List(ctx context.Context, subtree string) ([]*models.Document, error)
}

// Builder turns the content tree into an index artifact.
type Builder struct {
	source     DocumentSource
	snippetLen int
	mirror     storage.Storage // optional
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for build events.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMirror makes every build also replace the entries held by s.
func WithMirror(s storage.Storage) BuilderOption {
	return func(b *Builder) { b.mirror = s }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) BuilderOption {
	return func(b *Builder) { b.metrics = m }
}

// NewBuilder creates a builder reading documents from source.
func NewBuilder(source DocumentSource, cfg *config.SearchConfig, opts ...BuilderOption) *Builder {
	b := &Builder{
		source:     source,
		snippetLen: cfg.SnippetLength,
		logger:     zap.NewNop(),
	}
	if b.snippetLen <= 0 {
		b.snippetLen = 200
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build loads the whole tree and returns the artifact generated at now.
func (b *Builder) Build(ctx context.Context, now time.Time) (*models.IndexArtifact, error) {
	docs, err := b.source.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	entries := BuildEntries(docs, b.snippetLen)
	art := &models.IndexArtifact{
		Version:     models.ArtifactVersion,
		GeneratedAt: now.UTC(),
		Count:       len(entries),
		Docs:        entries,
	}
	if b.mirror != nil {
		if err := b.mirror.ReplaceEntries(ctx, art); err != nil {
			return nil, fmt.Errorf("failed to update entry mirror: %w", err)
		}
	}
	b.metrics.RecordIndexBuild(art.Count)
	b.logger.Info("index built", zap.Int("documents", len(docs)), zap.Int("entries", art.Count))
	return art, nil
}

// BuildAndWrite builds the artifact and writes it atomically to path.
func (b *Builder) BuildAndWrite(ctx context.Context, path string, now time.Time) (*models.IndexArtifact, error) {
	art, err := b.Build(ctx, now)
	if err != nil {
		return nil, err
	}
	if err := WriteArtifact(path, art); err != nil {
		return nil, err
	}
	b.logger.Debug("index artifact written", zap.String("path", path))
	return art, nil
}

// BuildEntries returns one entry per non-draft document, newest first by
// updated-or-created date, ties and undated documents ordered by id.
func BuildEntries(docs []*models.Document, snippetLen int) []models.SearchIndexEntry {
	entries := make([]models.SearchIndexEntry, 0, len(docs))
	for _, d := range docs {
		if d.Draft {
			continue
		}
		entries = append(entries, entryFor(d, snippetLen))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := sortDate(&entries[i]), sortDate(&entries[j])
		switch {
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.After(*dj)
		case di != nil && dj == nil:
			return true
		case di == nil && dj != nil:
			return false
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func entryFor(d *models.Document, snippetLen int) models.SearchIndexEntry {
	var snippet string
	if d.Summary != "" {
		snippet = SummarySnippet(d.Summary, snippetLen)
	} else {
		snippet = Snippet(d.Body, snippetLen)
	}
	e := models.SearchIndexEntry{
		ID:        d.ID,
		URL:       d.URL,
		Type:      d.Type,
		Title:     d.Title,
		Subtitle:  d.Subtitle,
		Tags:      copyList(d.Tags),
		Snippet:   snippet,
		Countries: copyList(d.Countries),
		Programs:  copyList(d.Programs),
		Vertical:  d.Vertical(),
		Date:      copyTime(d.Created),
		Updated:   copyTime(d.Updated),
	}
	if v := d.MinInvestment(); v != nil {
		e.MinInvestment = utils.FinitePtr(*v)
	}
	if v := d.TimelineMonths(); v != nil {
		e.TimelineMonths = utils.FinitePtr(*v)
	}
	return e
}

func sortDate(e *models.SearchIndexEntry) *time.Time {
	if e.Updated != nil {
		return e.Updated
	}
	return e.Date
}

func copyList(s []string) []string {
	return append(make([]string, 0, len(s)), s...)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := t.UTC()
	return &c
}
