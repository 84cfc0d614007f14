package parser

import (
	"bytes"
	"errors"

	"github.com/dgallion1/webmark/internal/doctree"
	"github.com/dgallion1/webmark/internal/tags"
)

// ErrNoAnchor is returned when the document has no <!doctype html> marker.
var ErrNoAnchor = errors.New("document type declaration not found")

var anchor = []byte("<!doctype html")

// MatchPolicy decides which pending opener a closing token may close.
type MatchPolicy uint8

const (
	// MatchTop closes only when the most recently opened tag has the same
	// kind. Any other closer is dropped as noise.
	MatchTop MatchPolicy = iota
	// MatchDeep searches the whole pending stack for the nearest opener of
	// the same kind and discards every opener above it.
	MatchDeep
)

func (p MatchPolicy) String() string {
	if p == MatchDeep {
		return "deep"
	}
	return "top"
}

// ParseMatchPolicy maps "top" and "deep" to a policy. Anything else is
// MatchTop.
func ParseMatchPolicy(s string) MatchPolicy {
	if s == "deep" {
		return MatchDeep
	}
	return MatchTop
}

// Options tunes the tree builder.
type Options struct {
	Policy MatchPolicy
}

// Build scans src once and returns the forest of matched tags. Unclosed
// openers do not fail the build: the tree is returned with
// Status == doctree.StatusMalformed and the leftovers in Unclosed (still
// pending first, most recent first, then any openers MatchDeep skipped).
func Build(src []byte) (*doctree.Tree, error) {
	return BuildWithOptions(src, Options{})
}

// BuildWithOptions is Build with an explicit match policy.
func BuildWithOptions(src []byte, opts Options) (*doctree.Tree, error) {
	pos, ok := findAnchor(src)
	if !ok {
		return nil, ErrNoAnchor
	}

	tree := doctree.New(src)
	// stack[len-1] is the most recently opened tag.
	var stack []doctree.Pending
	// openers skipped over by MatchDeep; they were never closed either.
	var dropped []doctree.Pending

	for pos < len(src) {
		lt := bytes.IndexByte(src[pos:], '<')
		if lt < 0 {
			break
		}
		start := pos + lt
		gt := bytes.IndexByte(src[start:], '>')
		if gt < 0 {
			break
		}
		end := start + gt
		pos = end + 1

		kind, org := tags.KindOf(src, start, end)
		if kind.Opaque() {
			continue
		}

		tok := doctree.Span{Start: start, End: end}
		switch org {
		case tags.Opening:
			stack = append(stack, doctree.Pending{Kind: kind, Open: tok})
		case tags.SelfClosing:
			// no text, no node
		case tags.Closing:
			idx := matchIndex(stack, kind, opts.Policy)
			if idx < 0 {
				continue
			}
			open := stack[idx]
			for i := len(stack) - 1; i > idx; i-- {
				dropped = append(dropped, stack[i])
			}
			stack = stack[:idx]

			id := tree.Add(open.Kind, open.Open, tok)
			tree.Adopt(id)
		}
	}

	if len(stack) > 0 || len(dropped) > 0 {
		tree.Status = doctree.StatusMalformed
		tree.Unclosed = make([]doctree.Pending, 0, len(stack)+len(dropped))
		for i := len(stack) - 1; i >= 0; i-- {
			tree.Unclosed = append(tree.Unclosed, stack[i])
		}
		tree.Unclosed = append(tree.Unclosed, dropped...)
	}
	return tree, nil
}

// matchIndex returns the stack index a closer of the given kind pops, or -1
// if the closer is unmatched.
func matchIndex(stack []doctree.Pending, kind tags.Kind, policy MatchPolicy) int {
	if len(stack) == 0 {
		return -1
	}
	top := len(stack) - 1
	if stack[top].Kind == kind {
		return top
	}
	if policy != MatchDeep {
		return -1
	}
	for i := top - 1; i >= 0; i-- {
		if stack[i].Kind == kind {
			return i
		}
	}
	return -1
}

// findAnchor locates the doctype marker case-insensitively and returns the
// offset just past its closing '>'.
func findAnchor(src []byte) (int, bool) {
	n := len(anchor)
	for i := 0; i+n <= len(src); i++ {
		if src[i] != '<' || !bytes.EqualFold(src[i:i+n], anchor) {
			continue
		}
		gt := bytes.IndexByte(src[i+n:], '>')
		if gt < 0 {
			return len(src), true
		}
		return i + n + gt + 1, true
	}
	return 0, false
}
