package keyword

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/almanac/internal/models"
)

// prefixBoostFactor scales a field boost for the last-term prefix clause.
const prefixBoostFactor = 0.5

// BleveIndex implements KeywordIndex on a memory-only Bleve index.
type BleveIndex struct {
	index bleve.Index
	opts  SearchOptions
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex(opts SearchOptions) (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	if opts.Fuzziness < 0 {
		opts.Fuzziness = 0
	}
	if opts.Fuzziness > 2 {
		opts.Fuzziness = 2
	}
	return &BleveIndex{index: index, opts: opts}, nil
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer (lowercase + tokenize, no stemming) so "visa" matches "Visa"
	// without "residency" and "resident" collapsing into one term.
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	for _, f := range TextFields {
		docMapping.AddFieldMappingsAt(f, text)
	}

	kw := bleve.NewTextFieldMapping()
	kw.Analyzer = keywordanalyzer.Name
	docMapping.AddFieldMappingsAt(FieldType, kw)

	im.AddDocumentMapping("entry", docMapping)
	im.DefaultType = "entry"
	im.DefaultMapping = docMapping
	return im
}

// IndexEntries indexes entries in one batch.
func (b *BleveIndex) IndexEntries(ctx context.Context, entries []models.SearchIndexEntry) error {
	batch := b.index.NewBatch()
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		e := &entries[i]
		doc := map[string]any{
			FieldTitle:    e.Title,
			FieldSubtitle: e.Subtitle,
			FieldTags:     e.Tags,
			FieldSnippet:  e.Snippet,
			FieldType:     e.Type,
		}
		if err := batch.Index(e.ID, doc); err != nil {
			return fmt.Errorf("failed to index %s: %w", e.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply index batch: %w", err)
	}
	return nil
}

// Search matches query against the text fields with per-field boosts and fuzziness,
// plus a prefix clause on the last term, filtered to types when given.
func (b *BleveIndex) Search(ctx context.Context, query string, types []string, limit int) ([]*KeywordResult, error) {
	q := b.buildQuery(query, types)
	if q == nil {
		return []*KeywordResult{}, nil
	}
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &KeywordResult{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

func (b *BleveIndex) buildQuery(query string, types []string) blevequery.Query {
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		return nil
	}
	text := strings.Join(terms, " ")
	last := terms[len(terms)-1]
	withPrefix := b.opts.Prefix && utf8.RuneCountInString(last) >= 2

	should := make([]blevequery.Query, 0, 2*len(TextFields))
	for _, field := range TextFields {
		boost := b.boost(field)

		mq := bleve.NewMatchQuery(text)
		mq.SetField(field)
		mq.SetBoost(boost)
		if b.opts.Fuzziness > 0 {
			mq.SetFuzziness(b.opts.Fuzziness)
		}
		should = append(should, mq)

		if withPrefix {
			pq := bleve.NewPrefixQuery(last)
			pq.SetField(field)
			pq.SetBoost(boost * prefixBoostFactor)
			should = append(should, pq)
		}
	}
	var q blevequery.Query = bleve.NewDisjunctionQuery(should...)

	if len(types) > 0 {
		filters := make([]blevequery.Query, 0, len(types))
		for _, t := range types {
			tq := bleve.NewTermQuery(t)
			tq.SetField(FieldType)
			filters = append(filters, tq)
		}
		q = bleve.NewConjunctionQuery(q, bleve.NewDisjunctionQuery(filters...))
	}
	return q
}

func (b *BleveIndex) boost(field string) float64 {
	var v float64
	switch field {
	case FieldTitle:
		v = b.opts.TitleBoost
	case FieldSubtitle:
		v = b.opts.SubtitleBoost
	case FieldTags:
		v = b.opts.TagsBoost
	case FieldSnippet:
		v = b.opts.SnippetBoost
	}
	if v <= 0 {
		return 1
	}
	return v
}

// tokenizeQuery splits query into lowercase terms, trimming surrounding punctuation.
func tokenizeQuery(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			terms = append(terms, w)
		}
	}
	return terms
}

// Terms returns the distinct terms of the analyzed text fields.
func (b *BleveIndex) Terms() ([]string, error) {
	seen := make(map[string]struct{})
	terms := make([]string, 0)
	for _, field := range TextFields {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s dictionary: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			if _, ok := seen[entry.Term]; !ok {
				seen[entry.Term] = struct{}{}
				terms = append(terms, entry.Term)
			}
		}
		_ = dict.Close()
	}
	return terms, nil
}

// DocCount returns the total number of entries in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
