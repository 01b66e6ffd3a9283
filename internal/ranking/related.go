package ranking

import (
	"sort"

	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/models"
)

// Scorer ranks candidate documents by weighted overlap with a source document.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	signals      []weightedSignal
	defaultCount int
}

// NewScorer creates a scorer from cfg; zero weights and keywords take defaults.
func NewScorer(cfg config.RelatedConfig) *Scorer {
	config.ApplyRelatedDefaults(&cfg)
	count := cfg.DefaultCount
	if count <= 0 {
		count = 5
	}
	w := cfg.Weights
	return &Scorer{
		signals: []weightedSignal{
			{TagSignal{}, w.Tag},
			{VerticalSignal{}, w.Vertical},
			{CountrySignal{}, w.Country},
			{ProgramSignal{}, w.Program},
			{NewKeywordSignal(cfg.Keywords), w.Keyword},
		},
		defaultCount: count,
	}
}

// Score returns the weighted similarity of candidate to source.
func (s *Scorer) Score(source, candidate *models.Document) float64 {
	total := 0.0
	for _, ws := range s.signals {
		total += ws.weight * ws.signal.Score(source, candidate)
	}
	return total
}

// Breakdown returns the weighted contribution of each signal, keyed by signal name.
func (s *Scorer) Breakdown(source, candidate *models.Document) map[string]float64 {
	out := make(map[string]float64, len(s.signals))
	for _, ws := range s.signals {
		out[ws.signal.Name()] = ws.weight * ws.signal.Score(source, candidate)
	}
	return out
}

// Related returns the top n candidates from pool by score. The source itself,
// nil candidates and candidates scoring zero or less are left out. Ties go to
// the shorter timeline, then the lower minimum investment (absent values sort
// last), then title and country. n <= 0 uses the configured default count.
func (s *Scorer) Related(source *models.Document, pool []*models.Document, n int) []models.RelatedItem {
	if source == nil {
		return []models.RelatedItem{}
	}
	if n <= 0 {
		n = s.defaultCount
	}

	ranked := make([]scored, 0, len(pool))
	for _, c := range pool {
		if c == nil || c.ID == source.ID {
			continue
		}
		if score := s.Score(source, c); score > 0 {
			ranked = append(ranked, scored{doc: c, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	items := make([]models.RelatedItem, len(ranked))
	for i, r := range ranked {
		items[i] = itemFor(r.doc)
	}
	return items
}

func less(a, b scored) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if c := compareOptional(a.doc.TimelineMonths(), b.doc.TimelineMonths()); c != 0 {
		return c < 0
	}
	if c := compareOptional(a.doc.MinInvestment(), b.doc.MinInvestment()); c != 0 {
		return c < 0
	}
	return a.doc.Title+a.doc.PrimaryCountry() < b.doc.Title+b.doc.PrimaryCountry()
}

// compareOptional orders present values ascending before absent ones.
func compareOptional(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

func itemFor(d *models.Document) models.RelatedItem {
	return models.RelatedItem{
		ID:             d.ID,
		URL:            d.URL,
		Title:          d.Title,
		Type:           d.Type,
		Country:        d.PrimaryCountry(),
		MinInvestment:  d.MinInvestment(),
		TimelineMonths: d.TimelineMonths(),
	}
}
