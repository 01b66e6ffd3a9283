// Package search answers free-text queries against the index artifact.
package search

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/indexer"
	"github.com/hyperjump/almanac/internal/keyword"
	"github.com/hyperjump/almanac/internal/metrics"
	"github.com/hyperjump/almanac/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Search outcomes recorded in metrics.
const (
	OutcomeEmpty = "empty"
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
)

// corpus is one loaded artifact and the index built over it. It is never
// mutated after construction; Reload swaps in a new one.
type corpus struct {
	index       keyword.KeywordIndex
	byID        map[string]*models.SearchIndexEntry
	corrector   *keyword.Corrector
	generatedAt time.Time
	loadedAt    time.Time
}

// Status describes the loaded corpus.
type Status struct {
	Loaded      bool      `json:"loaded"`
	Entries     int       `json:"entries"`
	GeneratedAt time.Time `json:"generatedAt,omitempty"`
	LoadedAt    time.Time `json:"loadedAt,omitempty"`
}

// Engine runs multi-variant keyword search over the index artifact.
type Engine struct {
	indexPath string
	config    *config.SearchConfig
	expander  *Expander
	current   atomic.Pointer[corpus]
	group     singleflight.Group
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records search latency and corpus size.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine that loads the artifact at indexPath on first use.
func NewEngine(indexPath string, cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		indexPath: indexPath,
		config:    cfg,
		expander: NewExpander(
			WithMaxVariants(cfg.MaxVariants),
			WithCustomSynonyms(cfg.Synonyms),
		),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs query. An empty query returns an empty response without loading
// the corpus. Variants that fail are logged and contribute nothing. When no
// variant matches, a respelled query is tried if the variant budget allows.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	ProcessQuery(query, e.config)
	if query.IsEmpty() {
		e.metrics.RecordSearch(OutcomeEmpty, 0, 0)
		return &models.SearchResponse{Query: "", Items: []*models.SearchHit{}}, nil
	}

	c, err := e.corpus(ctx)
	if err != nil {
		return nil, err
	}

	candidates := max(e.config.CandidateLimit, query.Limit)
	variants := e.expander.Expand(query.Query)
	lists, err := e.runVariants(ctx, c, variants, query.Types, candidates)
	if err != nil {
		return nil, err
	}
	merged := MergeMax(lists...)
	if len(merged) == 0 {
		if corrected, ok := e.respell(c, query.Query, variants); ok {
			variants = append(variants, corrected)
			lists, err = e.runVariants(ctx, c, []string{corrected}, query.Types, candidates)
			if err != nil {
				return nil, err
			}
			merged = MergeMax(lists...)
		}
	}

	items := make([]*models.SearchHit, 0, min(query.Limit, len(merged)))
	for _, r := range merged {
		if len(items) == query.Limit {
			break
		}
		entry, ok := c.byID[r.ID]
		if !ok {
			continue
		}
		items = append(items, &models.SearchHit{SearchIndexEntry: *entry, Score: r.Score})
	}

	took := time.Since(startTime)
	outcome := OutcomeHit
	if len(items) == 0 {
		outcome = OutcomeMiss
	}
	e.metrics.RecordSearch(outcome, len(variants), took)
	e.logger.Debug("search",
		zap.String("query", query.Query),
		zap.Strings("variants", variants),
		zap.Strings("types", query.Types),
		zap.Int("count", len(items)),
		zap.Duration("took", took))

	return &models.SearchResponse{
		Query:  query.Query,
		TookMs: float64(took.Microseconds()) / 1000,
		Count:  len(items),
		Items:  items,
	}, nil
}

// runVariants searches each variant independently. A failing variant is logged
// and skipped unless the context is done.
func (e *Engine) runVariants(ctx context.Context, c *corpus, variants, types []string, limit int) ([][]*keyword.KeywordResult, error) {
	lists := make([][]*keyword.KeywordResult, 0, len(variants))
	for _, v := range variants {
		results, err := c.index.Search(ctx, v, types, limit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.logger.Warn("search variant failed", zap.String("variant", v), zap.Error(err))
			continue
		}
		lists = append(lists, results)
	}
	return lists, nil
}

// respell returns q with unknown terms replaced by their closest indexed terms,
// when that is new and the variant budget has room.
func (e *Engine) respell(c *corpus, q string, variants []string) (string, bool) {
	if c.corrector == nil || len(variants) >= e.expander.MaxVariants() {
		return "", false
	}
	corrected, ok := c.corrector.Correct(normalizeText(q))
	if !ok {
		return "", false
	}
	for _, v := range variants {
		if v == corrected {
			return "", false
		}
	}
	return corrected, true
}

// corpus returns the loaded corpus, loading it on first use. Concurrent first
// callers share one load.
func (e *Engine) corpus(ctx context.Context) (*corpus, error) {
	if c := e.current.Load(); c != nil {
		return c, nil
	}
	v, err, _ := e.group.Do("load", func() (any, error) {
		if c := e.current.Load(); c != nil {
			return c, nil
		}
		c, err := e.build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		return e.installFirst(c), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*corpus), nil
}

// installFirst installs c only when no corpus is loaded yet. A concurrent Reload may
// have installed a newer corpus meanwhile; that one wins and c is released.
func (e *Engine) installFirst(c *corpus) *corpus {
	for {
		if e.current.CompareAndSwap(nil, c) {
			return c
		}
		if cur := e.current.Load(); cur != nil {
			_ = c.index.Close()
			return cur
		}
	}
}

// Reload rebuilds the corpus from the artifact on disk and swaps it in.
// Searches in flight finish against the corpus they started with.
func (e *Engine) Reload(ctx context.Context) (Status, error) {
	v, err, _ := e.group.Do("reload", func() (any, error) {
		c, err := e.build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		e.current.Store(c)
		return c, nil
	})
	if err != nil {
		return Status{}, err
	}
	return statusOf(v.(*corpus)), nil
}

// Status reports the loaded corpus without triggering a load.
func (e *Engine) Status() Status {
	c := e.current.Load()
	if c == nil {
		return Status{}
	}
	return statusOf(c)
}

func statusOf(c *corpus) Status {
	return Status{
		Loaded:      true,
		Entries:     len(c.byID),
		GeneratedAt: c.generatedAt,
		LoadedAt:    c.loadedAt,
	}
}

// build loads the artifact and indexes it. A missing or unreadable artifact
// degrades to an empty corpus.
func (e *Engine) build(ctx context.Context) (*corpus, error) {
	art, err := indexer.LoadArtifact(e.indexPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("index artifact missing, serving empty corpus", zap.String("path", e.indexPath))
		} else {
			e.logger.Warn("index artifact unreadable, serving empty corpus", zap.String("path", e.indexPath), zap.Error(err))
		}
		art = &models.IndexArtifact{Version: models.ArtifactVersion}
	}

	idx, err := keyword.NewMemoryIndex(keyword.SearchOptions{
		TitleBoost:    e.config.Boosts.Title,
		SubtitleBoost: e.config.Boosts.Subtitle,
		TagsBoost:     e.config.Boosts.Tags,
		SnippetBoost:  e.config.Boosts.Snippet,
		Fuzziness:     e.config.FuzzinessOrDefault(),
		Prefix:        e.config.PrefixOrDefault(),
	})
	if err != nil {
		return nil, err
	}
	if err := idx.IndexEntries(ctx, art.Docs); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("failed to index artifact: %w", err)
	}

	c := &corpus{
		index:       idx,
		byID:        make(map[string]*models.SearchIndexEntry, len(art.Docs)),
		generatedAt: art.GeneratedAt,
		loadedAt:    time.Now().UTC(),
	}
	for i := range art.Docs {
		c.byID[art.Docs[i].ID] = &art.Docs[i]
	}
	if e.config.SpellCorrectOrDefault() && len(art.Docs) > 0 {
		terms, err := idx.Terms()
		if err != nil {
			e.logger.Warn("spell correction disabled", zap.Error(err))
		} else {
			c.corrector = keyword.NewCorrector(terms)
		}
	}

	e.metrics.SetCorpusSize(len(c.byID))
	e.logger.Info("search corpus loaded",
		zap.String("path", e.indexPath),
		zap.Int("entries", len(c.byID)),
		zap.Time("generated_at", art.GeneratedAt))
	return c, nil
}

// Close releases the loaded index.
func (e *Engine) Close() error {
	c := e.current.Swap(nil)
	if c == nil {
		return nil
	}
	return c.index.Close()
}
