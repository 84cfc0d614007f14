package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dgallion1/webmark/internal/output"
	"github.com/dgallion1/webmark/internal/page"
	"github.com/dgallion1/webmark/internal/parser"
)

// Flags shared by fetch and convert.
var (
	outPath    string
	noHeader   bool
	deepMatch  bool
	noEntities bool
)

func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outPath, "output", "o", output.DefaultPath, `output file, or "-" for stdout`)
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "omit the URL header")
	cmd.Flags().BoolVar(&deepMatch, "deep-match", false, "let closing tags match below the top of the stack")
	cmd.Flags().BoolVar(&noEntities, "no-entities", false, "leave named character references undecoded")
}

func pageOptions() page.Options {
	opts := cfg.Page()
	if noHeader {
		opts.URLHeader = false
	}
	if deepMatch {
		opts.Policy = parser.MatchDeep
	}
	if noEntities {
		opts.NamedEntities = false
	}
	return opts
}

var convertURL string

var convertCmd = &cobra.Command{
	Use:   "convert <file.html|->",
	Short: "Convert a local HTML file to Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readSource(cmd.Context(), cmd, args[0])
		if err != nil {
			return err
		}
		src := convertURL
		if src == "" {
			src = args[0]
		}
		conv := &page.Converter{Log: log, Opts: pageOptions()}
		res, err := conv.Convert(page.FromBytes(src, data))
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), res)
	},
}

func init() {
	addConvertFlags(convertCmd)
	convertCmd.Flags().StringVar(&convertURL, "url", "", "URL shown in the header (defaults to the file name)")
	rootCmd.AddCommand(convertCmd)
}

func emit(stdout io.Writer, res *page.Result) error {
	if outPath == "-" {
		_, err := io.WriteString(stdout, res.Markdown)
		return err
	}
	if err := output.WriteFile(outPath, res.Markdown); err != nil {
		return err
	}
	log.Info("wrote markdown", "path", outPath, "bytes", len(res.Markdown), "status", res.Status.String())
	fmt.Fprintf(stdout, "%s\n", outPath)
	return nil
}
