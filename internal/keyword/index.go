// Package keyword provides the in-memory full-text index behind the query engine.
package keyword

import (
	"context"

	"github.com/hyperjump/almanac/internal/models"
)

// Field names in the index mapping.
const (
	FieldTitle    = "title"
	FieldSubtitle = "subtitle"
	FieldTags     = "tags"
	FieldSnippet  = "snippet"
	FieldType     = "type"
)

// TextFields are the analyzed fields a query is matched against.
var TextFields = []string{FieldTitle, FieldSubtitle, FieldTags, FieldSnippet}

// SearchOptions tunes query construction. Zero boosts fall back to 1.
type SearchOptions struct {
	TitleBoost    float64
	SubtitleBoost float64
	TagsBoost     float64
	SnippetBoost  float64
	// Fuzziness is the maximum edit distance per term, clamped to [0, 2].
	Fuzziness int
	// Prefix adds a prefix match on the last query term when it has at least two runes.
	Prefix bool
}

// KeywordIndex defines keyword search operations over index entries.
type KeywordIndex interface {
	// IndexEntries adds or replaces entries, keyed by entry id.
	IndexEntries(ctx context.Context, entries []models.SearchIndexEntry) error
	// Search returns up to limit hits, restricted to types when non-empty.
	Search(ctx context.Context, query string, types []string, limit int) ([]*KeywordResult, error)
	// Terms returns the distinct analyzed terms of the text fields.
	Terms() ([]string, error)
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit.
type KeywordResult struct {
	ID    string
	Score float64
}
