package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/webmark/internal/doctree"
	"github.com/dgallion1/webmark/internal/output"
	"github.com/dgallion1/webmark/internal/page"
)

// Worker converts one job at a time.
type Worker struct {
	conv      *page.Converter
	outputDir string
	log       *slog.Logger
}

func NewWorker(conv *page.Converter, outputDir string, log *slog.Logger) *Worker {
	return &Worker{conv: conv, outputDir: outputDir, log: log}
}

// Process runs fetch, parse, render and the optional write for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "url", job.URL)

	// Phase 1: Fetch
	src := job.Source()
	if len(src) == 0 {
		job.SetStatus(StatusFetching, "fetching")
		if w.conv.Fetcher == nil {
			job.AddError("no fetcher configured")
			job.SetStatus(StatusFailed, "fetching")
			return
		}
		body, err := w.conv.Fetcher.Get(ctx, job.URL)
		if err != nil {
			log.Error("fetch failed", "error", err)
			job.AddError(fmt.Sprintf("fetch: %s", err))
			job.SetStatus(StatusFailed, "fetching")
			return
		}
		src = body
	}
	p := page.FromBytes(job.URL, src)

	// Phase 2: Parse
	job.SetStatus(StatusParsing, "parsing")
	tree, err := w.conv.Parse(p)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Phase 3: Render
	job.SetStatus(StatusRendering, "rendering")
	res := w.conv.Render(p, tree)
	job.setResult(res, ContentHashHex([]byte(res.Markdown)))
	if res.Status == doctree.StatusMalformed {
		job.AddError("unclosed tags: " + strings.Join(res.Unclosed, ", "))
	}

	// Phase 4: Write
	if w.outputDir != "" {
		job.SetStatus(StatusWriting, "writing")
		path := filepath.Join(w.outputDir, output.FileName(job.URL))
		if err := output.WriteFile(path, res.Markdown); err != nil {
			log.Error("write failed", "error", err)
			job.AddError(fmt.Sprintf("write: %s", err))
			job.SetStatus(StatusFailed, "writing")
			return
		}
		job.setOutputPath(path)
		log.Info("wrote markdown", "path", path, "bytes", len(res.Markdown))
	}

	if res.Status == doctree.StatusMalformed {
		job.SetStatus(StatusPartial, "done")
		return
	}
	job.SetStatus(StatusCompleted, "done")
}
