package models

import "time"

// ArtifactVersion is the current index artifact format version.
const ArtifactVersion = 1

// SearchIndexEntry is the denormalized, serializable summary of one Document.
type SearchIndexEntry struct {
	ID             string     `json:"id"`
	URL            string     `json:"url"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Subtitle       string     `json:"subtitle,omitempty"`
	Tags           []string   `json:"tags"`
	Snippet        string     `json:"snippet"`
	Countries      []string   `json:"countries"`
	Programs       []string   `json:"programs"`
	Vertical       string     `json:"vertical,omitempty"`
	Date           *time.Time `json:"date,omitempty"`
	Updated        *time.Time `json:"updated,omitempty"`
	MinInvestment  *float64   `json:"minInvestment,omitempty"`
	TimelineMonths *float64   `json:"timelineMonths,omitempty"`
}

// IndexArtifact is the portable index written by the builder and loaded by the query engine.
type IndexArtifact struct {
	Version     int                `json:"version"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Count       int                `json:"count"`
	Docs        []SearchIndexEntry `json:"docs"`
}
