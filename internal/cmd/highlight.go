package cmd

import (
	"github.com/loglens/backend/internal/parser"
	"github.com/spf13/cobra"
)

func newHighlightCmd(o *options) *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "highlight <file>",
		Short: "Print a log file with syntax highlighting",
		Long: `Tokenize the parsed part of a log file and print it with each token
coloured by its highlight class. --offset and --limit select a byte range,
which is widened to whole lines.

Examples:
  loglens highlight app.log
  loglens highlight app.log --offset 4096 --limit 2048
  loglens highlight app.log -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, src, err := openDocument(o, args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			r, err := o.renderer(cmd)
			if err != nil {
				return err
			}

			start, end := doc.LineWindow(offset, limit)
			text := string(doc.Content()[start:end])
			return r.Highlight(text, parser.TokenizeSpans(text))
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "byte offset to start at")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of bytes to print (default: to the end)")
	return cmd
}
