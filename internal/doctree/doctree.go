package doctree

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/webmark/internal/tags"
)

// Span is a closed pair of byte offsets into Tree.Source. For a token, Start
// is the offset of '<' and End the offset of the matching '>'.
type Span struct {
	Start int
	End   int
}

// Contains reports whether o lies strictly inside s.
func (s Span) Contains(o Span) bool {
	return s.Start < o.Start && o.End < s.End
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start + 1 }

// Pending is an opening token that has not been matched to its closer yet.
type Pending struct {
	Kind tags.Kind
	Open Span
}

// NodeID indexes Tree.Nodes.
type NodeID int

// NoParent marks a node that is currently a root.
const NoParent NodeID = -1

// Node is a matched element. Parent is an arena index, never a pointer, and
// is assigned at most once when a later, enclosing node adopts this one.
type Node struct {
	Kind     tags.Kind
	Open     Span     // opening token
	Close    Span     // closing token
	Parent   NodeID   // NoParent while the node is a root
	Children []NodeID // document order
}

// Full returns the span from the opening '<' to the closing '>'.
func (n *Node) Full() Span {
	return Span{Start: n.Open.Start, End: n.Close.End}
}

// Inner returns the half-open byte range between the opening and closing
// tokens.
func (n *Node) Inner() (int, int) {
	return n.Open.End + 1, n.Close.Start
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Status describes how the tree builder finished.
type Status uint8

const (
	StatusClean Status = iota
	StatusMalformed
)

func (s Status) String() string {
	if s == StatusMalformed {
		return "malformed"
	}
	return "clean"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Tree is an arena of nodes built over one immutable source buffer. Roots is
// the forest: nodes not yet claimed as a child of another node.
type Tree struct {
	Source []byte
	Nodes  []Node
	Roots  []NodeID

	Status   Status
	Unclosed []Pending // most recently opened first

	Title       string // from <title>, if any
	Description string // from <meta name="description">, if any
}

// New returns an empty tree over src.
func New(src []byte) *Tree {
	return &Tree{Source: src}
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// Add stores a new node in the arena and returns its id. The node is not yet
// part of the forest; call Adopt for that.
func (t *Tree) Add(kind tags.Kind, open, close Span) NodeID {
	t.Nodes = append(t.Nodes, Node{
		Kind:   kind,
		Open:   open,
		Close:  close,
		Parent: NoParent,
	})
	return NodeID(len(t.Nodes) - 1)
}

// Adopt reconciles the forest against a freshly completed node: every root
// whose full span lies strictly inside the new node becomes its child (in
// forest order, which is document order), and the new node joins the forest.
func (t *Tree) Adopt(id NodeID) {
	if len(t.Roots) == 0 {
		t.Roots = append(t.Roots, id)
		return
	}

	full := t.Nodes[id].Full()
	kept := t.Roots[:0]
	for _, root := range t.Roots {
		if full.Contains(t.Nodes[root].Full()) {
			t.Nodes[id].Children = append(t.Nodes[id].Children, root)
			t.Nodes[root].Parent = id
			continue
		}
		kept = append(kept, root)
	}
	t.Roots = append(kept, id)
}

// Parent returns the parent of id, if it has one.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	p := t.Nodes[id].Parent
	return p, p != NoParent
}

// Depth returns the number of ancestors of id.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for p, ok := t.Parent(id); ok; p, ok = t.Parent(p) {
		d++
	}
	return d
}

// Walk visits every node reachable from the forest in pre-order. Returning
// false from fn skips the node's children.
func (t *Tree) Walk(fn func(id NodeID, depth int) bool) {
	var walk func(id NodeID, depth int)
	walk = func(id NodeID, depth int) {
		if !fn(id, depth) {
			return
		}
		for _, c := range t.Nodes[id].Children {
			walk(c, depth+1)
		}
	}
	for _, r := range t.Roots {
		walk(r, 0)
	}
}

// Text returns the raw source bytes in [from, to) as a string, clamping the
// range to the buffer.
func (t *Tree) Text(from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(t.Source) {
		to = len(t.Source)
	}
	if from >= to {
		return ""
	}
	return string(t.Source[from:to])
}

// Dump writes one line per node, indented by depth, with the open and close
// spans.
func (t *Tree) Dump(w io.Writer) error {
	var err error
	t.Walk(func(id NodeID, depth int) bool {
		if err != nil {
			return false
		}
		n := t.Nodes[id]
		_, err = fmt.Fprintf(w, "%s%s [%d,%d] [%d,%d]\n",
			strings.Repeat("  ", depth), n.Kind, n.Open.Start, n.Open.End, n.Close.Start, n.Close.End)
		return err == nil
	})
	return err
}
