package models

// SearchHit is an index entry plus the score it was ranked by.
type SearchHit struct {
	SearchIndexEntry
	Score float64 `json:"score"`
}

// SearchResponse is the response for a search request. Items are score-descending
// and each document id appears at most once.
type SearchResponse struct {
	Query  string       `json:"query"`
	TookMs float64      `json:"tookMs"`
	Count  int          `json:"count"`
	Items  []*SearchHit `json:"items"`
}

// RelatedItem is the summary shown in related-content panels.
type RelatedItem struct {
	ID             string   `json:"id"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Type           string   `json:"type"`
	Country        string   `json:"country,omitempty"`
	MinInvestment  *float64 `json:"minInvestment,omitempty"`
	TimelineMonths *float64 `json:"timelineMonths,omitempty"`
}
