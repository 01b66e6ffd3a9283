package search

import (
	"sort"

	"github.com/hyperjump/almanac/internal/keyword"
)

// MergeMax folds per-variant result lists into one list holding each id once with
// the highest score it reached in any list. The result is sorted by score
// descending, then id ascending.
func MergeMax(lists ...[]*keyword.KeywordResult) []*keyword.KeywordResult {
	best := make(map[string]float64)
	for _, list := range lists {
		for _, r := range list {
			if r == nil {
				continue
			}
			if s, ok := best[r.ID]; !ok || r.Score > s {
				best[r.ID] = r.Score
			}
		}
	}
	merged := make([]*keyword.KeywordResult, 0, len(best))
	for id, score := range best {
		merged = append(merged, &keyword.KeywordResult{ID: id, Score: score})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}
