// Package e2e provides end-to-end tests over a generated content tree and multiple queries.
package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/almanac/internal/docid"
)

// E2EDocument is one file of the generated content tree.
type E2EDocument struct {
	// Path is the root-relative slash path of the file.
	Path  string
	ID    string
	Title string
	Tags  []string
	// MinInvestment is zero for documents without one.
	MinInvestment  int
	TimelineMonths int
	Body           string
}

// QueryTestCase defines a query and the document ID(s) that must appear in search results.
type QueryTestCase struct {
	Query          string
	ExpectedDocIDs []string
	Description    string
}

// Corpus holds documents and query test cases for E2E tests.
type Corpus struct {
	Documents    []E2EDocument
	TestCases    []QueryTestCase
	TotalDocs    int
	TotalQueries int
}

var countries = []string{
	"portugal", "spain", "greece", "malta", "cyprus", "italy", "ireland", "latvia", "hungary", "bulgaria",
	"croatia", "estonia", "panama", "uruguay", "mexico", "canada", "australia", "thailand", "indonesia", "georgia",
}

var programKinds = []struct {
	slug  string
	title string
	tag   string
	base  int
}{
	{"golden-visa", "Golden Visa", "golden visa", 250000},
	{"digital-nomad-visa", "Digital Nomad Visa", "digital nomad", 0},
	{"startup-visa", "Startup Visa", "startup visa", 50000},
	{"retirement-visa", "Retirement Visa", "retirement visa", 0},
}

// BuildCorpus returns a corpus of 100 documents: one overview and four programs for each
// of 20 countries under the residency vertical. Every program title names its country,
// so "<country> <program>" queries have a single best answer.
func BuildCorpus() *Corpus {
	docs := buildDocuments()
	cases := buildQueryTestCases(docs)
	return &Corpus{
		Documents:    docs,
		TestCases:    cases,
		TotalDocs:    len(docs),
		TotalQueries: len(cases),
	}
}

func buildDocuments() []E2EDocument {
	out := make([]E2EDocument, 0, len(countries)*(len(programKinds)+1))
	for i, country := range countries {
		name := docid.Humanize(country)
		out = append(out, E2EDocument{
			Path:  fmt.Sprintf("residency/%s/_country.mdx", country),
			ID:    docid.Country("residency", country),
			Title: name,
			Tags:  []string{country},
			Body:  fmt.Sprintf("Living in %s: climate, healthcare and taxes.\n", name),
		})
		for j, kind := range programKinds {
			doc := E2EDocument{
				Path:           fmt.Sprintf("residency/%s/%s.mdx", country, kind.slug),
				ID:             docid.Program("residency", country, kind.slug),
				Title:          fmt.Sprintf("%s %s", name, kind.title),
				Tags:           []string{kind.tag, country},
				TimelineMonths: 2 + (i+j)%10,
				Body: fmt.Sprintf("Overview of the %s %s.\n\n### Eligibility\nApplicants must hold a clean record in %s.\n\n### Costs & Fees\nGovernment fees apply.\n",
					name, strings.ToLower(kind.title), name),
			}
			if kind.base > 0 {
				doc.MinInvestment = kind.base + i*10000
			}
			out = append(out, doc)
		}
	}
	return out
}

func buildQueryTestCases(docs []E2EDocument) []QueryTestCase {
	var cases []QueryTestCase
	for _, d := range docs {
		if strings.Contains(d.Path, "/_") {
			continue
		}
		query := strings.ToLower(d.Title)
		cases = append(cases, QueryTestCase{
			Query:          query,
			ExpectedDocIDs: []string{d.ID},
			Description:    fmt.Sprintf("query %q should return doc %s", query, d.ID),
		})
	}
	return cases
}

func containsPhrase(d E2EDocument, phrase string) bool {
	phrase = strings.ToLower(phrase)
	return strings.Contains(strings.ToLower(d.Title), phrase) || strings.Contains(strings.ToLower(d.Body), phrase)
}

// Markdown renders the document as a frontmatter-headed content file.
func (d E2EDocument) Markdown() string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", d.Title)
	b.WriteString("tags:\n")
	for _, tag := range d.Tags {
		fmt.Fprintf(&b, "  - %q\n", tag)
	}
	if d.MinInvestment > 0 {
		fmt.Fprintf(&b, "minimumInvestment: %d\n", d.MinInvestment)
	}
	if d.TimelineMonths > 0 {
		fmt.Fprintf(&b, "processingTime: \"%d months\"\n", d.TimelineMonths)
	}
	b.WriteString("---\n")
	b.WriteString(d.Body)
	return b.String()
}

// WriteTree writes every corpus document under root.
func (c *Corpus) WriteTree(root string) error {
	for _, d := range c.Documents {
		p := filepath.Join(root, filepath.FromSlash(d.Path))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(d.Markdown()), 0644); err != nil {
			return fmt.Errorf("write %s: %w", d.Path, err)
		}
	}
	return nil
}
