// Package page turns one HTML document into Markdown: fetch, build the tag
// tree, render, sanitize.
package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/webmark/internal/doctree"
	"github.com/dgallion1/webmark/internal/fetch"
	"github.com/dgallion1/webmark/internal/parser"
	"github.com/dgallion1/webmark/internal/render"
	"github.com/dgallion1/webmark/internal/textutil"
)

// ErrNoContent is returned when a page has no source to convert.
var ErrNoContent = errors.New("page has no content")

// Page is a document and the URL it came from.
type Page struct {
	URL    string
	Source []byte
}

// New returns an empty page for url; its source is filled by Scrape.
func New(url string) *Page { return &Page{URL: url} }

// FromBytes wraps already loaded HTML.
func FromBytes(url string, src []byte) *Page {
	return &Page{URL: url, Source: src}
}

// Options tunes the conversion.
type Options struct {
	URLHeader     bool
	NamedEntities bool
	Policy        parser.MatchPolicy
}

// DefaultOptions matches the command line defaults.
func DefaultOptions() Options {
	return Options{URLHeader: true, NamedEntities: true, Policy: parser.MatchTop}
}

// Result is the converted page.
type Result struct {
	URL         string         `json:"url,omitempty"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Markdown    string         `json:"markdown"`
	Status      doctree.Status `json:"status"`
	Unclosed    []string       `json:"unclosed,omitempty"`
	Nodes       int            `json:"nodes"`
}

// Converter runs the conversion. Fetcher is only needed by Scrape.
type Converter struct {
	Fetcher fetch.Fetcher
	Log     *slog.Logger
	Opts    Options
}

func (c *Converter) logger() *slog.Logger {
	if c.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Log
}

// Scrape fetches url and converts it.
func (c *Converter) Scrape(ctx context.Context, url string) (*Result, error) {
	if c.Fetcher == nil {
		return nil, errors.New("scrape: no fetcher configured")
	}
	body, err := c.Fetcher.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return c.Convert(FromBytes(url, body))
}

// Convert builds the tag tree for p and renders it. A malformed tree is not
// an error: the result carries StatusMalformed and the unclosed tag names.
func (c *Converter) Convert(p *Page) (*Result, error) {
	tree, err := c.Parse(p)
	if err != nil {
		return nil, err
	}
	return c.Render(p, tree), nil
}

// Parse builds the tag tree and fills in the page title and description.
func (c *Converter) Parse(p *Page) (*doctree.Tree, error) {
	if len(p.Source) == 0 {
		return nil, ErrNoContent
	}
	hp := &parser.HTMLParser{Options: parser.Options{Policy: c.Opts.Policy}}
	tree, err := hp.Parse(bytes.NewReader(p.Source), p.fileName())
	if err != nil {
		c.logger().Warn("tree build failed", "url", p.URL, "error", err)
		return nil, err
	}
	return tree, nil
}

// Render turns a built tree into the final Markdown.
func (c *Converter) Render(p *Page, tree *doctree.Tree) *Result {
	log := c.logger().With("url", p.URL)
	res := &Result{
		URL:         p.URL,
		Title:       tree.Title,
		Description: tree.Description,
		Status:      tree.Status,
		Nodes:       len(tree.Nodes),
	}
	if tree.Status == doctree.StatusMalformed {
		for _, u := range tree.Unclosed {
			res.Unclosed = append(res.Unclosed, u.Kind.String())
		}
		log.Warn("malformed document", "unclosed", res.Unclosed)
	}

	body := render.Forest(tree)
	if c.Opts.URLHeader {
		body = Header(p.URL) + body
	}
	res.Markdown = textutil.SanitizeMarkdown(body, textutil.SanitizeOptions{
		NamedEntities: c.Opts.NamedEntities,
	})
	log.Debug("converted", "nodes", res.Nodes, "status", res.Status.String(), "bytes", len(res.Markdown))
	return res
}

// fileName is the name used for the title fallback. Remote pages have none.
func (p *Page) fileName() string {
	if strings.HasPrefix(p.URL, "http://") || strings.HasPrefix(p.URL, "https://") {
		return ""
	}
	return p.URL
}

// Header is the line block written before the rendered body.
func Header(url string) string {
	return "# URL: \n- " + url + "\n\n"
}
