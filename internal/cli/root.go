// Package cli implements the webmark command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/webmark/internal/config"
	"github.com/dgallion1/webmark/internal/fetch"
	"github.com/dgallion1/webmark/internal/logging"
)

var version = "dev"

var (
	configPath string
	verbose    bool
	logDir     string

	cfg       config.Config
	log       *slog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "webmark",
	Short:         "Convert HTML pages to Markdown",
	Long:          "webmark fetches HTML pages, rebuilds their tag tree and renders it as Markdown.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return err
		}
		if logDir != "" {
			cfg.LogDir = logDir
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		log, logCloser, err = logging.Setup(logging.Options{
			Console: cmd.ErrOrStderr(),
			Verbose: verbose,
			Dir:     cfg.LogDir,
		})
		return err
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "also write logs to numbered files in this directory")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", exitHint(err))
		os.Exit(1)
	}
}

func newFetchClient() *fetch.Client {
	return fetch.NewClient(cfg.Fetch(), log)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// readSource loads HTML from a URL, a file, or stdin when arg is "-".
func readSource(ctx context.Context, cmd *cobra.Command, arg string) ([]byte, error) {
	switch {
	case arg == "-":
		return io.ReadAll(cmd.InOrStdin())
	case isURL(arg):
		c := newFetchClient()
		defer c.Close()
		return c.Get(ctx, arg)
	default:
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", arg, err)
		}
		return data, nil
	}
}
