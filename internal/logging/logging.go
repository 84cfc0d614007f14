// Package logging builds the slog loggers used by the command line and the
// server, and manages numbered log files.
package logging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

type Options struct {
	Console io.Writer // defaults to os.Stderr
	Verbose bool
	JSON    bool
	Dir     string // when set, output is also written to Dir/log-N.txt
}

// Setup returns a logger and a closer for the log file, if one was opened.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	w := opts.Console
	if w == nil {
		w = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		f, err := OpenNumbered(opts.Dir)
		if err != nil {
			return nil, nil, err
		}
		w = io.MultiWriter(w, f)
		closer = f
	}
	return New(w, opts.Verbose, opts.JSON), closer, nil
}

// New returns a text or JSON logger at Info, or Debug when verbose.
func New(w io.Writer, verbose, json bool) *slog.Logger {
	ho := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		ho.Level = slog.LevelDebug
	}
	if json {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OpenNumbered creates dir/log-N.txt for the lowest N not yet taken.
func OpenNumbered(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	for n := 0; ; n++ {
		path := filepath.Join(dir, fmt.Sprintf("log-%d.txt", n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("open log file: %w", err)
		}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
