package models

import "strings"

const (
	// DefaultSearchLimit is used when a query carries no limit.
	DefaultSearchLimit = 12
	// MaxSearchLimit is the hard cap on returned results.
	MaxSearchLimit = 25
)

// SearchQuery is a free-text query with an optional type filter and result limit.
type SearchQuery struct {
	Query string   `json:"query"`
	Types []string `json:"types,omitempty"`
	Limit int      `json:"limit,omitempty"`
}

// Normalize trims the query text and type filter and clamps Limit into [1, maxLimit].
// Non-positive defaultLimit/maxLimit fall back to DefaultSearchLimit/MaxSearchLimit,
// and neither may exceed MaxSearchLimit.
func (q *SearchQuery) Normalize(defaultLimit, maxLimit int) {
	if maxLimit <= 0 {
		maxLimit = MaxSearchLimit
	}
	maxLimit = min(maxLimit, MaxSearchLimit)
	if defaultLimit <= 0 {
		defaultLimit = DefaultSearchLimit
	}
	defaultLimit = min(defaultLimit, maxLimit)
	q.Query = strings.TrimSpace(q.Query)
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	types := q.Types[:0:0]
	for _, t := range q.Types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			types = append(types, t)
		}
	}
	q.Types = types
}

// IsEmpty reports whether the query has no searchable text.
func (q *SearchQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Query) == ""
}
