package e2e

import (
	"strings"
	"testing"
)

func TestBuildCorpus_Returns100Documents(t *testing.T) {
	c := BuildCorpus()
	if c.TotalDocs != 100 {
		t.Errorf("expected 100 documents, got %d", c.TotalDocs)
	}
	if len(c.Documents) != 100 {
		t.Errorf("expected len(Documents)=100, got %d", len(c.Documents))
	}
}

func TestBuildCorpus_IDsAndPathsUnique(t *testing.T) {
	c := BuildCorpus()
	ids := make(map[string]bool)
	paths := make(map[string]bool)
	for _, d := range c.Documents {
		if ids[d.ID] || paths[d.Path] {
			t.Errorf("duplicate document %s (%s)", d.ID, d.Path)
		}
		ids[d.ID] = true
		paths[d.Path] = true
	}
}

func TestBuildCorpus_QueryTestCasesExist(t *testing.T) {
	c := BuildCorpus()
	if c.TotalQueries != 80 {
		t.Fatalf("expected one query test case per program, got %d", c.TotalQueries)
	}
	for i, tc := range c.TestCases {
		if tc.Query == "" {
			t.Errorf("test case %d: empty query", i)
		}
		if len(tc.ExpectedDocIDs) == 0 {
			t.Errorf("test case %d: no expected doc IDs", i)
		}
	}
}

func TestBuildCorpus_ExpectedDocsContainQueryPhrase(t *testing.T) {
	c := BuildCorpus()
	docByID := make(map[string]E2EDocument)
	for _, d := range c.Documents {
		docByID[d.ID] = d
	}
	for _, tc := range c.TestCases {
		for _, docID := range tc.ExpectedDocIDs {
			doc, ok := docByID[docID]
			if !ok {
				t.Errorf("expected doc ID %q not in corpus", docID)
				continue
			}
			if !containsPhrase(doc, tc.Query) {
				t.Errorf("doc %q (title=%q) does not contain query phrase %q", docID, doc.Title, tc.Query)
			}
		}
	}
}

func TestMarkdown_RendersFrontmatter(t *testing.T) {
	d := E2EDocument{Title: "Malta Golden Visa", Tags: []string{"golden visa"}, MinInvestment: 280000, TimelineMonths: 6, Body: "Body.\n"}
	md := d.Markdown()
	for _, want := range []string{"---\ntitle: \"Malta Golden Visa\"\n", "  - \"golden visa\"\n", "minimumInvestment: 280000\n", "processingTime: \"6 months\"\n", "---\nBody.\n"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}
