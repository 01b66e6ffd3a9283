package sections

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/almanac/internal/models"
)

// OverviewKey is the key of the implicit section holding content before the first heading.
const OverviewKey = "overview"

// headingPattern matches a level-3 ATX heading with optional closing hashes.
var headingPattern = regexp.MustCompile(`^ {0,3}###[ \t]+(.+?)(?:[ \t]+#+)?[ \t]*$`)

type state int

const (
	beforeFirstHeading state = iota
	inSection
)

// splitter is the two-state machine behind Split.
type splitter struct {
	state   state
	fence   Fence
	heading string
	lines   []string
	keys    keyAllocator
	out     *models.SectionSet
}

// Split breaks body into an ordered key -> section set. Each level-3 heading opens a
// section; non-blank content before the first heading becomes the overview section.
// Headings inside fenced code blocks are treated as body text.
func Split(body string) *models.SectionSet {
	sp := &splitter{
		keys: newKeyAllocator(),
		out:  models.NewSectionSet(),
	}
	body = strings.ReplaceAll(body, "\r\n", "\n")
	for _, line := range strings.Split(body, "\n") {
		sp.feed(line)
	}
	sp.flush()
	return sp.out
}

func (sp *splitter) feed(line string) {
	if sp.fence.Feed(line) {
		sp.lines = append(sp.lines, line)
		return
	}
	if !sp.fence.Open() {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			sp.flush()
			sp.state = inSection
			sp.heading = strings.TrimSpace(m[1])
			return
		}
	}
	sp.lines = append(sp.lines, line)
}

func (sp *splitter) flush() {
	text := strings.TrimSpace(strings.Join(sp.lines, "\n"))
	sp.lines = sp.lines[:0]
	switch sp.state {
	case beforeFirstHeading:
		if text == "" {
			return
		}
		sp.out.Add(models.Section{Key: sp.keys.allocate(OverviewKey), Body: text})
	case inSection:
		base := Slugify(sp.heading)
		if base == "" {
			base = fallbackKey
		}
		sp.out.Add(models.Section{Key: sp.keys.allocate(base), Heading: sp.heading, Body: text})
	}
}

// keyAllocator hands out unique keys, suffixing collisions with -2, -3, ...
type keyAllocator struct {
	used map[string]bool
	next map[string]int
}

func newKeyAllocator() keyAllocator {
	return keyAllocator{used: make(map[string]bool), next: make(map[string]int)}
}

func (a keyAllocator) allocate(base string) string {
	if !a.used[base] {
		a.used[base] = true
		return base
	}
	n := a.next[base]
	if n < 2 {
		n = 2
	}
	for {
		key := fmt.Sprintf("%s-%d", base, n)
		n++
		if !a.used[key] {
			a.next[base] = n
			a.used[key] = true
			return key
		}
	}
}

// Resolve returns the first section of doc matching keys, tried in order. Program
// documents use the sections split at load time; other documents are split on demand.
func Resolve(doc *models.Document, keys ...string) (models.Section, bool) {
	if doc == nil {
		return models.Section{}, false
	}
	set := sectionsOf(doc)
	return set.First(keys...)
}

// Of returns the section set of doc.
func Of(doc *models.Document) *models.SectionSet {
	if doc == nil {
		return models.NewSectionSet()
	}
	return sectionsOf(doc)
}

func sectionsOf(doc *models.Document) *models.SectionSet {
	if doc.Program != nil && doc.Program.Sections != nil {
		return doc.Program.Sections
	}
	return Split(doc.Body)
}
