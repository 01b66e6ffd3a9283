package search

import (
	"strings"

	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/models"
)

// ProcessQuery trims the query, normalizes the type filter and applies the
// configured limit defaults.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) {
	query.Normalize(cfg.DefaultLimit, cfg.MaxLimit)
}

// normalizeText lowercases s and collapses whitespace runs to single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
