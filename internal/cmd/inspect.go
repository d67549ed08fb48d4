package cmd

import (
	"github.com/loglens/backend/internal/models"
	"github.com/loglens/backend/internal/parser"
	"github.com/loglens/backend/internal/views"
	"github.com/spf13/cobra"
)

func newInspectCmd(o *options) *cobra.Command {
	var (
		showEntries bool
		showErrors  bool
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Detect the format of a log file and summarize it",
		Long: `Parse a log file and print its information view: size, detected format,
line count, time range, severity distribution and, for web access logs,
HTTP status classes.

Examples:
  loglens inspect /var/log/nginx/access.log
  loglens inspect app.log --errors --limit 50
  loglens inspect app.log --entries --level error,warning -o json`,
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
			if err := r.Information(args[0], views.BuildInformation(doc)); err != nil {
				return err
			}

			listed := filterSource(doc, parser.ParseLevels(o.levels()))
			if showEntries {
				if err := r.List("Entries", views.BuildEntries(listed, limit)); err != nil {
					return err
				}
			}
			if showErrors {
				if err := r.List("Errors", views.BuildErrors(listed, limit)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showEntries, "entries", false, "also list parsed entries")
	cmd.Flags().BoolVar(&showErrors, "errors", false, "also list warning and error entries")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows per list (default: view maximum)")
	return cmd
}

// levelSource narrows a document's records to a set of levels.
type levelSource struct {
	views.Source
	records []models.Record
}

func (s levelSource) Records() []models.Record { return s.records }

func filterSource(src views.Source, levels []models.Level) views.Source {
	if len(levels) == 0 {
		return src
	}
	q := parser.QueryParams{Levels: levels}
	all := src.Records()
	kept := make([]models.Record, 0)
	for i := range all {
		if q.Match(&all[i]) {
			kept = append(kept, all[i])
		}
	}
	return levelSource{Source: src, records: kept}
}
