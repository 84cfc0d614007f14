package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dgallion1/webmark/internal/outline"
	"github.com/dgallion1/webmark/internal/page"
	"github.com/dgallion1/webmark/internal/parser"
)

var outlineJSON bool

var outlineCmd = &cobra.Command{
	Use:   "outline <file.html|url|->",
	Short: "Print the heading outline of a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readSource(cmd.Context(), cmd, args[0])
		if err != nil {
			return err
		}
		opts := cfg.Page()
		opts.URLHeader = false
		conv := &page.Converter{Log: log, Opts: opts}
		res, err := conv.Convert(page.FromBytes(args[0], data))
		if err != nil {
			return err
		}

		sections := outline.Build([]byte(res.Markdown))
		if outlineJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sections)
		}
		return outline.Print(cmd.OutOrStdout(), sections)
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree <file.html|url|->",
	Short: "Print the tag tree with byte spans",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readSource(cmd.Context(), cmd, args[0])
		if err != nil {
			return err
		}
		tree, err := parser.BuildWithOptions(data, parser.Options{Policy: cfg.Page().Policy})
		if err != nil {
			return err
		}
		if err := tree.Dump(cmd.OutOrStdout()); err != nil {
			return err
		}
		if len(tree.Unclosed) > 0 {
			names := make([]string, len(tree.Unclosed))
			for i, u := range tree.Unclosed {
				names[i] = u.Kind.String()
			}
			log.Warn("malformed document", "unclosed", names)
		}
		return nil
	},
}

func init() {
	outlineCmd.Flags().BoolVar(&outlineJSON, "json", false, "print the outline as JSON")
	rootCmd.AddCommand(outlineCmd, treeCmd)
}
