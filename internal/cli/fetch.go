package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/webmark/internal/page"
	"github.com/dgallion1/webmark/internal/parser"
	"github.com/dgallion1/webmark/internal/pipeline"
)

var fetchDir string

var fetchCmd = &cobra.Command{
	Use:   "fetch <url> [url...]",
	Short: "Fetch pages and convert them to Markdown",
	Long: `Fetch one page and write it to --output (default output.md), or several
pages concurrently into --dir with one file per URL.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, a := range args {
			if !isURL(a) {
				return fmt.Errorf("not an http(s) url: %s", a)
			}
		}
		if len(args) == 1 && fetchDir == "" {
			return fetchOne(cmd, args[0])
		}
		return fetchMany(cmd, args)
	},
}

func init() {
	addConvertFlags(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchDir, "dir", "d", "", "output directory for several URLs")
	rootCmd.AddCommand(fetchCmd)
}

func fetchOne(cmd *cobra.Command, url string) error {
	client := newFetchClient()
	defer client.Close()

	conv := &page.Converter{Fetcher: client, Log: log, Opts: pageOptions()}
	res, err := conv.Scrape(cmd.Context(), url)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), res)
}

func fetchMany(cmd *cobra.Command, urls []string) error {
	client := newFetchClient()
	defer client.Close()

	runCfg := cfg
	opts := pageOptions()
	runCfg.URLHeader = opts.URLHeader
	runCfg.NamedEntities = opts.NamedEntities
	runCfg.MatchPolicy = opts.Policy.String()
	runCfg.OutputDir = fetchDir
	if runCfg.OutputDir == "" {
		runCfg.OutputDir = cfg.OutputDir
	}
	if runCfg.OutputDir == "" {
		runCfg.OutputDir = "."
	}
	if runCfg.MaxQueueSize < len(urls) {
		runCfg.MaxQueueSize = len(urls)
	}

	orch := pipeline.NewOrchestrator(runCfg, client, log)
	orch.Start(cmd.Context())
	defer orch.Stop()

	jobs := make([]*pipeline.Job, 0, len(urls))
	for _, u := range urls {
		job := pipeline.NewJob(u)
		if err := orch.Submit(job); err != nil {
			return err
		}
		jobs = append(jobs, job)
	}

	var failed int
	out := cmd.OutOrStdout()
	for _, job := range jobs {
		select {
		case <-job.Done():
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}
		snap := job.Snapshot()
		switch snap.Status {
		case pipeline.StatusFailed:
			failed++
			fmt.Fprintf(out, "%s\t%s\t%v\n", snap.Status, snap.URL, snap.Errors)
		default:
			fmt.Fprintf(out, "%s\t%s\t%s\n", snap.Status, snap.URL, snap.OutputPath)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pages failed", failed, len(jobs))
	}
	return nil
}

// exitHint turns the common conversion errors into friendlier messages.
func exitHint(err error) error {
	switch {
	case errors.Is(err, parser.ErrNoAnchor):
		return fmt.Errorf("%w (is this an HTML document with <!DOCTYPE html>?)", err)
	case errors.Is(err, page.ErrNoContent):
		return fmt.Errorf("%w (empty response)", err)
	}
	return err
}
