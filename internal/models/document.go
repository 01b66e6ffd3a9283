// Package models defines core data structures for documents, sections, index entries, and queries.
package models

import (
	"encoding/json"
	"time"
)

// Kind identifies which variant of Document is populated.
type Kind string

const (
	// KindCountry is a country overview (<vertical>/<country>/_<hub>.mdx).
	KindCountry Kind = "country"
	// KindProgram is an investment-migration program (<vertical>/<country>/<program>.mdx).
	KindProgram Kind = "program"
	// KindHub is an editorial entry (<hubKind>/<slug>.mdx).
	KindHub Kind = "hub"
)

// Document is one normalized content unit. Exactly one of Country, Program and Hub
// is set, matching Kind.
type Document struct {
	ID         string     `json:"id"`
	Kind       Kind       `json:"kind"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Subtitle   string     `json:"subtitle,omitempty"`
	Summary    string     `json:"summary,omitempty"`
	URL        string     `json:"url"`
	LinkLabel  string     `json:"link_label,omitempty"`
	Tags       []string   `json:"tags"`
	Countries  []string   `json:"countries"`
	Programs   []string   `json:"programs"`
	Created    *time.Time `json:"created,omitempty"`
	Updated    *time.Time `json:"updated,omitempty"`
	Draft      bool       `json:"draft,omitempty"`
	Body       string     `json:"body"`
	SourcePath string     `json:"source_path"`

	Country *CountryDoc `json:"country,omitempty"`
	Program *ProgramDoc `json:"program,omitempty"`
	Hub     *HubDoc     `json:"hub,omitempty"`
}

// CountryDoc holds fields specific to country overviews.
type CountryDoc struct {
	Vertical    string `json:"vertical"`
	CountrySlug string `json:"country_slug"`
	HubFile     string `json:"hub_file"`
	Region      string `json:"region,omitempty"`
}

// ProgramDoc holds fields specific to programs. Steps, FAQ and Prices are passed
// through as raw JSON without interpretation.
type ProgramDoc struct {
	Vertical       string          `json:"vertical"`
	CountrySlug    string          `json:"country_slug"`
	ProgramSlug    string          `json:"program_slug"`
	MinInvestment  *float64        `json:"min_investment,omitempty"`
	TimelineMonths *float64        `json:"timeline_months,omitempty"`
	Currency       string          `json:"currency,omitempty"`
	Steps          json.RawMessage `json:"steps,omitempty"`
	FAQ            json.RawMessage `json:"faq,omitempty"`
	Prices         json.RawMessage `json:"prices,omitempty"`
	Sections       *SectionSet     `json:"sections,omitempty"`
}

// HubDoc holds fields specific to editorial entries.
type HubDoc struct {
	HubKind  string `json:"hub_kind"`
	Slug     string `json:"slug"`
	Author   string `json:"author,omitempty"`
	Category string `json:"category,omitempty"`
}

// DateOrCreated returns Updated when set, otherwise Created (nil when neither is set).
func (d *Document) DateOrCreated() *time.Time {
	if d.Updated != nil {
		return d.Updated
	}
	return d.Created
}

// Vertical returns the vertical (or hub category) the document belongs to.
func (d *Document) Vertical() string {
	switch {
	case d.Program != nil:
		return d.Program.Vertical
	case d.Country != nil:
		return d.Country.Vertical
	case d.Hub != nil:
		return d.Hub.Category
	}
	return ""
}

// PrimaryCountry returns the directory country for program and country docs,
// else the first country facet.
func (d *Document) PrimaryCountry() string {
	switch {
	case d.Program != nil:
		return d.Program.CountrySlug
	case d.Country != nil:
		return d.Country.CountrySlug
	}
	if len(d.Countries) > 0 {
		return d.Countries[0]
	}
	return ""
}

// MinInvestment returns the program minimum investment, or nil.
func (d *Document) MinInvestment() *float64 {
	if d.Program == nil {
		return nil
	}
	return d.Program.MinInvestment
}

// TimelineMonths returns the program timeline in months, or nil.
func (d *Document) TimelineMonths() *float64 {
	if d.Program == nil {
		return nil
	}
	return d.Program.TimelineMonths
}
