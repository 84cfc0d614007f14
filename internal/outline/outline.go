// Package outline reads rendered Markdown back with goldmark and returns its
// heading hierarchy.
package outline

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section is one heading and the prose that follows it up to the next
// heading of the same or a shallower level.
type Section struct {
	Title    string     `json:"title"`
	Level    int        `json:"level"`
	Text     string     `json:"text,omitempty"`
	Children []*Section `json:"children,omitempty"`
}

// Build parses md and nests sections by heading level. Text before the first
// heading becomes a level 0 section with no title.
func Build(md []byte) []*Section {
	doc := goldmark.New().Parser().Parse(text.NewReader(md))

	type stackEntry struct {
		sec   *Section
		level int
	}
	root := &Section{}
	stack := []stackEntry{{sec: root, level: 0}}

	var pending bytes.Buffer
	flush := func() {
		t := strings.TrimSpace(pending.String())
		pending.Reset()
		if t == "" {
			return
		}
		top := stack[len(stack)-1].sec
		if top.Text != "" {
			top.Text += "\n\n" + t
		} else {
			top.Text = t
		}
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			if t := blockText(n, md); t != "" {
				if pending.Len() > 0 {
					pending.WriteString("\n\n")
				}
				pending.WriteString(t)
			}
			continue
		}

		flush()
		for len(stack) > 1 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		sec := &Section{Title: blockText(h, md), Level: h.Level}
		parent := stack[len(stack)-1].sec
		parent.Children = append(parent.Children, sec)
		stack = append(stack, stackEntry{sec: sec, level: h.Level})
	}
	flush()

	if root.Text == "" {
		return root.Children
	}
	intro := &Section{Text: root.Text}
	return append([]*Section{intro}, root.Children...)
}

// Print writes the outline as an indented list.
func Print(w io.Writer, sections []*Section) error {
	return printLevel(w, sections, 0)
}

func printLevel(w io.Writer, sections []*Section, depth int) error {
	for _, s := range sections {
		title := s.Title
		if title == "" {
			title = "(intro)"
		}
		if _, err := fmt.Fprintf(w, "%s- %s\n", strings.Repeat("  ", depth), title); err != nil {
			return err
		}
		if err := printLevel(w, s.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	collect(&buf, n, src)
	return strings.TrimSpace(buf.String())
}

func collect(buf *bytes.Buffer, n ast.Node, src []byte) {
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(src))
			if c.HardLineBreak() || c.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(c.Value)
		default:
			collect(buf, c, src)
		}
	}
}
