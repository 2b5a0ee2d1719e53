// Package sanitize cleans user-supplied strings (category labels, post titles
// and contents) before they are embedded in SVG, HTML or tool output.
// Escaping stays the job of the output encoder; this package only removes
// markup and characters that have no business in a chart label.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLabelLength is the maximum rune count of a label.
const MaxLabelLength = 64

// MaxTextLength is the maximum rune count of free text such as post content.
const MaxTextLength = 2000

var (
	// reTag matches XML/HTML tags, including those with attributes, and
	// processing instructions like <?xml ...?>.
	reTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	reSpaces = regexp.MustCompile(`[ \t]+`)

	reExcessiveNewlines = regexp.MustCompile(`\n{3,}`)
)

// Label returns a single-line version of s suitable for an axis tick, a
// category name or a legend entry. Tags and control characters are removed,
// whitespace runs collapse to one space, and the result is truncated to
// MaxLabelLength runes with a trailing ellipsis.
func Label(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")
	s = reTag.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	s = reSpaces.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	return truncate(s, MaxLabelLength)
}

// Text cleans multi-line text. Newlines survive but runs of three or more
// collapse to two; other control characters and tags are removed.
func Text(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = reTag.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = reExcessiveNewlines.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	return truncate(s, MaxTextLength)
}

// truncate cuts s to max runes, appending "..." when anything was dropped.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "..."
}
