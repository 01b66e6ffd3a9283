// Package ranking scores candidate documents for related-content panels.
package ranking

import "github.com/hyperjump/almanac/internal/models"

// Signal measures one kind of overlap between a source document and a candidate.
// Scores are raw counts; the Scorer applies the signal's weight.
type Signal interface {
	Name() string
	Score(source, candidate *models.Document) float64
}

// weightedSignal pairs a signal with its configured weight.
type weightedSignal struct {
	signal Signal
	weight float64
}

// scored is a candidate with its total score.
type scored struct {
	doc   *models.Document
	score float64
}
