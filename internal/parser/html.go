package parser

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Meta holds page-level metadata that is not part of the rendered body.
type Meta struct {
	Title       string
	Description string
}

// ExtractMeta reads the <title> text and the description meta tag with the
// x/net/html tokenizer. It is independent of the tree builder and tolerates
// documents the builder rejects.
func ExtractMeta(src []byte) Meta {
	var meta Meta
	z := html.NewTokenizer(bytes.NewReader(src))
	inTitle := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return meta.trimmed()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "title":
				inTitle = meta.Title == ""
			case "meta":
				if meta.Description == "" && hasAttr {
					meta.Description = descriptionContent(z)
				}
			case "body":
				if meta.Title != "" || meta.Description != "" {
					return meta.trimmed()
				}
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "title" {
				inTitle = false
			}
		case html.TextToken:
			if inTitle {
				meta.Title += string(z.Text())
			}
		}
	}
}

func (m Meta) trimmed() Meta {
	m.Title = strings.Join(strings.Fields(m.Title), " ")
	return m
}

func descriptionContent(z *html.Tokenizer) string {
	var name, content string
	for {
		key, val, more := z.TagAttr()
		switch strings.ToLower(string(key)) {
		case "name", "property":
			v := strings.ToLower(string(val))
			if v == "description" || v == "og:description" {
				name = v
			}
		case "content":
			content = string(val)
		}
		if !more {
			break
		}
	}
	if name == "" {
		return ""
	}
	return strings.TrimSpace(content)
}
