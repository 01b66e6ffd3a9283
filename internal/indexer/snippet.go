package indexer

import (
	"regexp"
	"strings"

	"github.com/hyperjump/almanac/internal/sections"
	"github.com/hyperjump/almanac/pkg/utils"
)

// wordWindow is how far back from the cut point a truncation looks for a space.
const wordWindow = 40

var (
	mdxStatement  = regexp.MustCompile(`(?m)^[ \t]*(?:import|export)\s.*$`)
	mdxComment    = regexp.MustCompile(`(?s)\{/\*.*?\*/\}`)
	htmlComment   = regexp.MustCompile(`(?s)<!--.*?-->`)
	markupTag     = regexp.MustCompile(`</?[A-Za-z][^<>]*>`)
	image         = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	inlineLink    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	referenceLink = regexp.MustCompile(`\[([^\]]+)\]\[[^\]]*\]`)
	inlineCode    = regexp.MustCompile("`+([^`]*)`+")
	headingMarker = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	blockquote    = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	listMarker    = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+]|\d+\.)[ \t]+`)
	emphasis      = regexp.MustCompile(`\*\*|__|~~`)
)

// Snippet derives plain display text from an MDX body: fenced code, import/export
// statements, markup tags and images are dropped, links keep their text, inline code
// keeps its content and heading markers go. The result is whitespace-collapsed and
// truncated to limit runes at a word boundary, with an ellipsis when cut.
func Snippet(body string, limit int) string {
	text := stripFences(body)
	text = mdxStatement.ReplaceAllString(text, "")
	text = mdxComment.ReplaceAllString(text, " ")
	text = htmlComment.ReplaceAllString(text, " ")
	text = image.ReplaceAllString(text, " ")
	text = markupTag.ReplaceAllString(text, " ")
	text = inlineLink.ReplaceAllString(text, "$1")
	text = referenceLink.ReplaceAllString(text, "$1")
	text = inlineCode.ReplaceAllString(text, "$1")
	text = headingMarker.ReplaceAllString(text, "")
	text = blockquote.ReplaceAllString(text, "")
	text = listMarker.ReplaceAllString(text, "")
	text = emphasis.ReplaceAllString(text, "")
	return utils.TruncateAtWord(utils.CollapseWhitespace(text), limit, wordWindow)
}

// SummarySnippet collapses and truncates an explicit summary without markup stripping.
func SummarySnippet(summary string, limit int) string {
	return utils.TruncateAtWord(utils.CollapseWhitespace(summary), limit, wordWindow)
}

// stripFences removes fenced code blocks, including an unterminated trailing one.
func stripFences(body string) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	kept := lines[:0]
	var fence sections.Fence
	for _, line := range lines {
		if fence.Feed(line) || fence.Open() {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
