package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/webmark/internal/doctree"
)

// Parser converts raw document bytes into a tag tree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Tree, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".html":  true,
	".htm":   true,
	".xhtml": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !SupportedExtensions[ext] {
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
	return &HTMLParser{Options: opts}, nil
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// HTMLParser builds a tag tree and fills in the page title and description.
// Without a <title>, the title falls back to the file name minus extension.
type HTMLParser struct {
	Options Options
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Tree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	tree, err := BuildWithOptions(src, p.Options)
	if err != nil {
		return nil, err
	}

	meta := ExtractMeta(src)
	tree.Title = meta.Title
	tree.Description = meta.Description
	if tree.Title == "" && filename != "" {
		tree.Title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return tree, nil
}
