package tags

import "strings"

// Kind identifies a recognised element. Names that are not in the vocabulary
// resolve to Unknown.
type Kind uint8

const (
	Doctype Kind = iota
	HTML
	Head
	Title
	Meta
	Body
	P
	B
	I
	H1
	H2
	H3
	H4
	H5
	H6
	A
	Img
	Div
	Span
	UL
	OL
	LI
	Table
	TR
	TH
	TD
	Form
	Label
	Input
	Button
	Select
	Option
	Textarea
	Script
	Style
	Link
	BR
	HR
	Comment
	Unknown
	Cite
	Font

	numKinds
)

var kindNames = [numKinds]string{
	Doctype:  "!doctype",
	HTML:     "html",
	Head:     "head",
	Title:    "title",
	Meta:     "meta",
	Body:     "body",
	P:        "p",
	B:        "b",
	I:        "i",
	H1:       "h1",
	H2:       "h2",
	H3:       "h3",
	H4:       "h4",
	H5:       "h5",
	H6:       "h6",
	A:        "a",
	Img:      "img",
	Div:      "div",
	Span:     "span",
	UL:       "ul",
	OL:       "ol",
	LI:       "li",
	Table:    "table",
	TR:       "tr",
	TH:       "th",
	TD:       "td",
	Form:     "form",
	Label:    "label",
	Input:    "input",
	Button:   "button",
	Select:   "select",
	Option:   "option",
	Textarea: "textarea",
	Script:   "script",
	Style:    "style",
	Link:     "link",
	BR:       "br",
	HR:       "hr",
	Comment:  "!--",
	Unknown:  "unknown",
	Cite:     "cite",
	Font:     "font",
}

// aliases map extra element names onto an existing kind. Lookup accepts
// them; String always returns the canonical name.
var aliases = map[string]Kind{
	"strong": B,
	"em":     I,
}

// byName is built once at init and never written afterwards.
var byName = func() map[string]Kind {
	m := make(map[string]Kind, int(numKinds)+len(aliases))
	for k, name := range kindNames {
		m[name] = Kind(k)
	}
	for name, k := range aliases {
		m[name] = k
	}
	return m
}()

// Lookup resolves a tag name case-insensitively. It never fails: unknown
// names map to Unknown.
func Lookup(name string) Kind {
	if k, ok := byName[strings.ToLower(name)]; ok {
		return k
	}
	return Unknown
}

// String returns the canonical tag name.
func (k Kind) String() string {
	if k >= numKinds {
		return kindNames[Unknown]
	}
	return kindNames[k]
}

// Opaque reports whether the kind is skipped by the tree builder. Opaque
// tokens never become pending tags, so they contribute no structure and no
// text.
func (k Kind) Opaque() bool {
	switch k {
	case Doctype, Meta, Link, Img, Input, Button, Select, Option, Cite,
		Script, Style, BR, HR, Comment, Unknown:
		return true
	}
	return k >= numKinds
}

// HeadingLevel returns 1-6 for h1-h6 and 0 for everything else.
func (k Kind) HeadingLevel() int {
	if k >= H1 && k <= H6 {
		return int(k-H1) + 1
	}
	return 0
}
