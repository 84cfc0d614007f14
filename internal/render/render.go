// Package render turns a tag tree back into flowed, Markdown-like text.
//
// Each node sees only its own text: the gaps between its children are sliced
// out of the shared source buffer and cleaned, and the children render
// themselves recursively. Kind-specific formatting wraps the node's whole
// assembled content, not each fragment.
package render

import (
	"strings"

	"github.com/dgallion1/webmark/internal/doctree"
	"github.com/dgallion1/webmark/internal/tags"
	"github.com/dgallion1/webmark/internal/textutil"
)

// Forest renders every root in document order.
func Forest(t *doctree.Tree) string {
	var sb strings.Builder
	for _, id := range t.Roots {
		sb.WriteString(Node(t, id))
	}
	return sb.String()
}

// Node renders one node and its subtree.
func Node(t *doctree.Tree, id doctree.NodeID) string {
	n := t.Node(id)
	from, to := n.Inner()
	if n.IsLeaf() {
		return Format(n.Kind, textutil.Clean(t.Text(from, to)))
	}

	var sb strings.Builder
	prevEnd := from
	for _, cid := range n.Children {
		child := t.Node(cid)
		sb.WriteString(textutil.Clean(t.Text(prevEnd, child.Open.Start)))
		sb.WriteString(Node(t, cid))
		prevEnd = child.Close.End + 1
	}
	sb.WriteString(textutil.Clean(t.Text(prevEnd, to)))

	return Format(n.Kind, sb.String())
}

// Format applies the per-kind wrapping to already cleaned content.
func Format(kind tags.Kind, c string) string {
	if level := kind.HeadingLevel(); level > 0 {
		return strings.Repeat("#", level+1) + " " + c
	}
	switch kind {
	case tags.Title:
		return "# " + c + "\n"
	case tags.B:
		return "**" + c + "**"
	case tags.I:
		return "*" + c + "*"
	case tags.TH:
		return "**" + c + "** "
	case tags.TD:
		return c + "\n\n"
	}
	return c
}
