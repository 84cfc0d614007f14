package textutil

import "strings"

// referenceWindow is how far past '&' the sanitizer looks for ';'.
const referenceWindow = 10

// SanitizeOptions tunes SanitizeMarkdown.
type SanitizeOptions struct {
	// MaxNewlines caps runs of consecutive '\n'. Zero means 2.
	MaxNewlines int
	// NamedEntities resolves "&amp;"-style references in addition to
	// numeric ones.
	NamedEntities bool
}

// SanitizeMarkdown is the final pass over rendered text: it caps newline runs
// and resolves character references. An '&' with no ';' close enough behind
// it is copied through.
func SanitizeMarkdown(s string, opts SanitizeOptions) string {
	maxNL := opts.MaxNewlines
	if maxNL <= 0 {
		maxNL = 2
	}

	var out strings.Builder
	out.Grow(len(s))
	newlines := 0
	for pos := 0; pos < len(s); {
		c := s[pos]
		if c == '\n' {
			newlines++
			if newlines <= maxNL {
				out.WriteByte(c)
			}
			pos++
			continue
		}
		newlines = 0

		if c != '&' {
			out.WriteByte(c)
			pos++
			continue
		}

		end := -1
		for i := pos + 1; i < len(s) && i-pos <= referenceWindow; i++ {
			if s[i] == ';' {
				end = i
				break
			}
		}
		if end < 0 {
			out.WriteByte(c)
			pos++
			continue
		}
		out.WriteString(DecodeReference(s[pos:end+1], opts.NamedEntities))
		pos = end + 1
	}
	return out.String()
}
