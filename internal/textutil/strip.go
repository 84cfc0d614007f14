package textutil

import (
	"strings"

	"github.com/dgallion1/webmark/internal/tags"
)

// StripMarkup removes leftover <...> runs from a text fragment using a
// bracket-depth counter.
//
// Text is kept only while the depth is zero. An opening run bumps the depth;
// a closing run lowers it, and a closer that would take the depth below zero
// throws away everything collected so far. That reset is what erases text
// trapped between an ignored opener and its closer. A '<' with no later '>'
// is plain text, and whatever follows the last run is always kept.
func StripMarkup(s string) string {
	var out strings.Builder
	depth := 0
	pos := 0
	for pos < len(s) {
		open := strings.IndexByte(s[pos:], '<')
		if open < 0 {
			out.WriteString(s[pos:])
			break
		}
		open += pos
		closeAt := strings.IndexByte(s[open:], '>')
		if closeAt < 0 {
			out.WriteString(s[pos:])
			break
		}
		closeAt += open

		switch tags.Classify([]byte(s[open:closeAt+1]), 0, closeAt-open) {
		case tags.Opening:
			if depth == 0 {
				out.WriteString(s[pos:open])
			}
			depth++
		case tags.Closing:
			depth--
			if depth < 0 {
				depth = 0
				out.Reset()
			}
		case tags.SelfClosing:
			if depth == 0 {
				out.WriteString(s[pos:open])
			}
		}
		pos = closeAt + 1
	}
	return out.String()
}

// Beautify turns tabs into spaces, collapses runs of spaces and drops any
// space that sits right before a newline.
func Beautify(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\t", " ")

	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' && i+1 < len(s) && (s[i+1] == ' ' || s[i+1] == '\n') {
			continue
		}
		out.WriteByte(c)
	}
	return out.String()
}

// Clean runs StripMarkup followed by Beautify.
func Clean(s string) string {
	return Beautify(StripMarkup(s))
}
