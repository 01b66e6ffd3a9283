package ranking

import (
	"strings"

	"github.com/hyperjump/almanac/internal/models"
)

// TagSignal counts tags shared case-insensitively.
type TagSignal struct{}

// Name returns the signal name.
func (TagSignal) Name() string { return "tag" }

// Score returns the number of shared tags.
func (TagSignal) Score(source, candidate *models.Document) float64 {
	return float64(overlap(lowerSet(source.Tags), candidate.Tags, strings.ToLower))
}

// VerticalSignal counts shared verticals and hub categories.
type VerticalSignal struct{}

// Name returns the signal name.
func (VerticalSignal) Name() string { return "vertical" }

// Score returns the number of shared verticals or categories.
func (VerticalSignal) Score(source, candidate *models.Document) float64 {
	return float64(overlap(lowerSet(groupsOf(source)), groupsOf(candidate), strings.ToLower))
}

// groupsOf returns the vertical of program and country documents, or the
// category of a hub entry.
func groupsOf(d *models.Document) []string {
	if v := d.Vertical(); v != "" {
		return []string{v}
	}
	return nil
}

// CountrySignal counts shared country facets.
type CountrySignal struct{}

// Name returns the signal name.
func (CountrySignal) Name() string { return "country" }

// Score returns the number of shared countries.
func (CountrySignal) Score(source, candidate *models.Document) float64 {
	return float64(overlap(set(source.Countries), candidate.Countries, nil))
}

// ProgramSignal counts shared program facets.
type ProgramSignal struct{}

// Name returns the signal name.
func (ProgramSignal) Name() string { return "program" }

// Score returns the number of shared programs.
func (ProgramSignal) Score(source, candidate *models.Document) float64 {
	return float64(overlap(set(source.Programs), candidate.Programs, nil))
}

// KeywordSignal fires when both titles mention the same domain keyword.
type KeywordSignal struct {
	keywords []string
}

// NewKeywordSignal creates a keyword signal over keywords, matched case-insensitively.
func NewKeywordSignal(keywords []string) *KeywordSignal {
	s := &KeywordSignal{keywords: make([]string, 0, len(keywords))}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			s.keywords = append(s.keywords, k)
		}
	}
	return s
}

// Name returns the signal name.
func (s *KeywordSignal) Name() string { return "keyword" }

// Score returns 1 when some keyword appears in both titles, else 0.
func (s *KeywordSignal) Score(source, candidate *models.Document) float64 {
	a, b := strings.ToLower(source.Title), strings.ToLower(candidate.Title)
	for _, k := range s.keywords {
		if strings.Contains(a, k) && strings.Contains(b, k) {
			return 1
		}
	}
	return 0
}

func set(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" {
			m[v] = true
		}
	}
	return m
}

func lowerSet(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			m[v] = true
		}
	}
	return m
}

// overlap counts distinct values present in have, after applying norm.
func overlap(have map[string]bool, values []string, norm func(string) string) int {
	n := 0
	counted := make(map[string]bool, len(values))
	for _, v := range values {
		if norm != nil {
			v = strings.TrimSpace(norm(v))
		}
		if v == "" || counted[v] || !have[v] {
			continue
		}
		counted[v] = true
		n++
	}
	return n
}
