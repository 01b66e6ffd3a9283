package sections

import (
	"regexp"
	"strings"
)

// fencePattern matches a fenced code block delimiter and what follows it.
var fencePattern = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})(.*)$")

// Fence tracks fenced code blocks across lines. A block is closed only by a run of
// the opening character at least as long as the opener, with nothing after it.
type Fence struct {
	open string
}

// Feed advances the tracker by one line and reports whether the line is a fence
// delimiter (opening or closing).
func (f *Fence) Feed(line string) bool {
	m := fencePattern.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	run, rest := m[1], m[2]
	if f.open == "" {
		if run[0] == '`' && strings.Contains(rest, "`") {
			return false
		}
		f.open = run
		return true
	}
	if run[0] == f.open[0] && len(run) >= len(f.open) && strings.TrimSpace(rest) == "" {
		f.open = ""
		return true
	}
	return false
}

// Open reports whether a fenced block is currently open.
func (f *Fence) Open() bool {
	return f.open != ""
}
