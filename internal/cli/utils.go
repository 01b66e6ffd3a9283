// Package cli provides output writers for the Almanac command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hyperjump/almanac/internal/models"
	"github.com/hyperjump/almanac/internal/server"
	"github.com/hyperjump/almanac/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one result per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes a search response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, hit := range response.Items {
			fmt.Fprintf(w, "%.4f\t%s\t%s\t%s\n", hit.Score, hit.Type, hit.URL, hit.Title)
		}
		return nil
	default:
		fmt.Fprintf(w, "\nFound %d results for %q in %.2fms\n\n", response.Count, response.Query, response.TookMs)
		for i, hit := range response.Items {
			fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
			fmt.Fprintf(w, "%d. %s  [%s]  score %.4f\n", i+1, hit.Title, hit.Type, hit.Score)
			fmt.Fprintf(w, "   %s\n", hit.URL)
			if facts := keyFacts(hit.MinInvestment, hit.TimelineMonths); facts != "" {
				fmt.Fprintf(w, "   %s\n", facts)
			}
			if hit.Snippet != "" {
				fmt.Fprintf(w, "\n   %s\n", utils.Truncate(hit.Snippet, 200))
			}
			fmt.Fprintln(w)
		}
		return nil
	}
}

// WriteRelated writes related items to w in the given format.
func WriteRelated(w io.Writer, items []models.RelatedItem, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, items)
	case OutputCompact:
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\n", it.Type, it.URL, it.Title)
		}
		return nil
	default:
		if len(items) == 0 {
			fmt.Fprintln(w, "No related items.")
			return nil
		}
		for i, it := range items {
			line := fmt.Sprintf("%d. %s (%s)", i+1, it.Title, it.URL)
			if it.Country != "" {
				line += " · " + it.Country
			}
			fmt.Fprintln(w, line)
			if facts := keyFacts(it.MinInvestment, it.TimelineMonths); facts != "" {
				fmt.Fprintf(w, "   %s\n", facts)
			}
		}
		return nil
	}
}

// WriteSection writes one section; text and compact formats print its markdown.
func WriteSection(w io.Writer, id string, section models.Section, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]any{"id": id, "section": section})
	}
	_, err := fmt.Fprintln(w, section.Markdown())
	return err
}

// WriteSectionKeys lists the section keys of a document.
func WriteSectionKeys(w io.Writer, id string, set *models.SectionSet, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]any{"id": id, "sections": set})
	}
	for _, s := range set.All() {
		if s.Heading == "" {
			fmt.Fprintln(w, s.Key)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", s.Key, s.Heading)
	}
	return nil
}

// WriteStatus writes a status report.
func WriteStatus(w io.Writer, st *server.StatusResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "index_loaded:       %t\n", st.Index.Loaded)
	fmt.Fprintf(w, "index_entries:      %d   # entries in the search corpus\n", st.Index.Entries)
	if !st.Index.GeneratedAt.IsZero() {
		fmt.Fprintf(w, "index_generated_at: %s\n", st.Index.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"))
	}
	if st.Cache != nil {
		fmt.Fprintf(w, "cache_hits:         %d\n", st.Cache.Hits)
		fmt.Fprintf(w, "cache_misses:       %d\n", st.Cache.Misses)
		fmt.Fprintf(w, "cache_subtrees:     %d   # cached content snapshots\n", st.Cache.Subtrees)
	}
	if st.MirrorEntries != nil {
		fmt.Fprintf(w, "mirror_entries:     %d\n", *st.MirrorEntries)
	}
	if st.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # artifact + mirror on disk\n", *st.DiskUsageBytes)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	fmt.Fprintf(w, "content_root:       %s\n", st.Config.ContentRoot)
	fmt.Fprintf(w, "index_path:         %s\n", st.Config.IndexPath)
	if st.Config.DatabasePath != "" {
		fmt.Fprintf(w, "database_path:      %s\n", st.Config.DatabasePath)
	}
	fmt.Fprintf(w, "max_variants:       %d\n", st.Config.MaxVariants)
	return nil
}

// keyFacts renders the optional program facts, e.g. "from 500,000 · 6 months".
func keyFacts(minInvestment, timelineMonths *float64) string {
	var parts []string
	if minInvestment != nil {
		parts = append(parts, "from "+groupThousands(*minInvestment))
	}
	if timelineMonths != nil {
		parts = append(parts, strconv.FormatFloat(*timelineMonths, 'f', -1, 64)+" months")
	}
	return strings.Join(parts, " · ")
}

func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
