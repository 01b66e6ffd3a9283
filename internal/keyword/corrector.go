package keyword

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Corrector proposes a respelled query from the vocabulary of the index. Terms that
// are known, or shorter than minLength, are kept as they are.
type Corrector struct {
	vocabulary  map[string]struct{}
	byLength    map[int][]string
	maxDistance int
	minLength   int
}

// CorrectorOption configures a Corrector.
type CorrectorOption func(*Corrector)

// WithMaxDistance sets the maximum edit distance of a correction.
func WithMaxDistance(d int) CorrectorOption {
	return func(c *Corrector) {
		if d > 0 {
			c.maxDistance = d
		}
	}
}

// WithMinLength sets the shortest term that is eligible for correction.
func WithMinLength(n int) CorrectorOption {
	return func(c *Corrector) {
		if n > 0 {
			c.minLength = n
		}
	}
}

// NewCorrector builds a corrector over terms.
func NewCorrector(terms []string, opts ...CorrectorOption) *Corrector {
	c := &Corrector{
		vocabulary:  make(map[string]struct{}, len(terms)),
		byLength:    make(map[int][]string),
		maxDistance: 2,
		minLength:   4,
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, t := range terms {
		t = strings.ToLower(t)
		if _, dup := c.vocabulary[t]; dup {
			continue
		}
		c.vocabulary[t] = struct{}{}
		n := utf8.RuneCountInString(t)
		c.byLength[n] = append(c.byLength[n], t)
	}
	for n := range c.byLength {
		sort.Strings(c.byLength[n])
	}
	return c
}

// Correct returns the query with each unknown term replaced by its closest known
// term, and whether anything changed. Ties prefer the lexically smaller term.
func (c *Corrector) Correct(query string) (string, bool) {
	terms := tokenizeQuery(query)
	changed := false
	for i, term := range terms {
		if best, ok := c.suggest(term); ok {
			terms[i] = best
			changed = true
		}
	}
	if !changed {
		return query, false
	}
	return strings.Join(terms, " "), true
}

func (c *Corrector) suggest(term string) (string, bool) {
	if _, known := c.vocabulary[term]; known {
		return "", false
	}
	n := utf8.RuneCountInString(term)
	if n < c.minLength {
		return "", false
	}
	best, bestDist := "", c.maxDistance+1
	for l := n - c.maxDistance; l <= n+c.maxDistance; l++ {
		for _, candidate := range c.byLength[l] {
			d := EditDistance(term, candidate)
			if d < bestDist || (d == bestDist && candidate < best) {
				best, bestDist = candidate, d
			}
		}
	}
	return best, best != ""
}

// Len returns the vocabulary size.
func (c *Corrector) Len() int {
	return len(c.vocabulary)
}
