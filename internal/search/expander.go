package search

import (
	"sort"
	"strings"
)

const defaultMaxVariants = 4

// Expander rewrites a query into a small fixed set of domain-synonym variants.
type Expander struct {
	synonyms    map[string][]string
	phrases     []string
	maxVariants int
}

// ExpanderOption configures an Expander.
type ExpanderOption func(*Expander)

// WithMaxVariants caps the number of variants, the original query included.
func WithMaxVariants(n int) ExpanderOption {
	return func(x *Expander) {
		if n > 0 {
			x.maxVariants = n
		}
	}
}

// WithCustomSynonyms adds phrase mappings on top of DomainSynonyms.
func WithCustomSynonyms(synonyms map[string][]string) ExpanderOption {
	return func(x *Expander) {
		for phrase, alts := range synonyms {
			key := normalizeText(phrase)
			if key == "" {
				continue
			}
			for _, alt := range alts {
				if alt = normalizeText(alt); alt != "" && alt != key {
					x.synonyms[key] = append(x.synonyms[key], alt)
				}
			}
		}
	}
}

// NewExpander creates an expander over DomainSynonyms.
func NewExpander(opts ...ExpanderOption) *Expander {
	x := &Expander{
		synonyms:    make(map[string][]string, len(DomainSynonyms)),
		maxVariants: defaultMaxVariants,
	}
	for k, v := range DomainSynonyms {
		x.synonyms[k] = append([]string(nil), v...)
	}
	for _, opt := range opts {
		opt(x)
	}

	// Longer phrases first so "golden visa" is tried before "visa"; ties by name
	// keep the variant order stable across runs.
	x.phrases = make([]string, 0, len(x.synonyms))
	for p := range x.synonyms {
		x.phrases = append(x.phrases, p)
	}
	sort.Slice(x.phrases, func(i, j int) bool {
		if len(x.phrases[i]) != len(x.phrases[j]) {
			return len(x.phrases[i]) > len(x.phrases[j])
		}
		return x.phrases[i] < x.phrases[j]
	})
	return x
}

// MaxVariants returns the variant cap.
func (x *Expander) MaxVariants() int {
	return x.maxVariants
}

// Expand returns the normalized query followed by its synonym variants, at most
// MaxVariants in total. A blank query yields nil.
func (x *Expander) Expand(query string) []string {
	base := normalizeText(query)
	if base == "" {
		return nil
	}
	variants := []string{base}
	seen := map[string]bool{base: true}
	for _, phrase := range x.phrases {
		if !containsPhrase(base, phrase) {
			continue
		}
		for _, alt := range x.synonyms[phrase] {
			if len(variants) >= x.maxVariants {
				return variants
			}
			v := replacePhrase(base, phrase, alt)
			if seen[v] {
				continue
			}
			seen[v] = true
			variants = append(variants, v)
		}
	}
	return variants
}

// containsPhrase reports whether phrase occurs in s on word boundaries.
func containsPhrase(s, phrase string) bool {
	return strings.Contains(" "+s+" ", " "+phrase+" ")
}

// replacePhrase swaps the first word-bounded occurrence of phrase in s for alt.
func replacePhrase(s, phrase, alt string) string {
	padded := strings.Replace(" "+s+" ", " "+phrase+" ", " "+alt+" ", 1)
	return strings.TrimSpace(padded)
}
