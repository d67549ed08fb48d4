package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/loglens/backend/internal/models"
	"github.com/loglens/backend/internal/parser"
	"github.com/spf13/cobra"
)

type probeResult struct {
	Path     string        `json:"path"`
	Eligible bool          `json:"eligible"`
	Format   models.Format `json:"format"`
	Error    string        `json:"error,omitempty"`
}

func newProbeCmd(o *options) *cobra.Command {
	var (
		extensions string
		sample     int
	)

	cmd := &cobra.Command{
		Use:   "probe <file>...",
		Short: "Report whether files look like logs and which format they use",
		Long: `Read the first bytes of each file and report whether it would be accepted
for parsing, together with the format detected from that sample.

Examples:
  loglens probe /var/log/*.log
  loglens probe notes.txt --extensions .txt,.out`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			probe := parser.NewProbe(strings.Split(extensions, ","), sample)

			results := make([]probeResult, 0, len(args))
			for _, path := range args {
				results = append(results, probeFile(probe, path))
			}
			return writeProbeResults(cmd.OutOrStdout(), o.outputFormat(), results)
		},
	}

	cmd.Flags().StringVar(&extensions, "extensions", strings.Join(parser.DefaultLogExtensions, ","), "accepted file extensions")
	cmd.Flags().IntVar(&sample, "sample", parser.DefaultSampleSize, "number of leading bytes to inspect")
	return cmd
}

func probeFile(p *parser.Probe, path string) probeResult {
	res := probeResult{Path: path}

	f, err := os.Open(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer f.Close()

	buf := make([]byte, p.SampleSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		res.Error = err.Error()
		return res
	}
	prefix := buf[:n]

	res.Eligible = p.Eligible(prefix, filepath.Ext(path))
	res.Format = parser.DetectFormat(prefix)
	return res
}

func writeProbeResults(w io.Writer, format string, results []probeResult) error {
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(w)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range results {
		var err error
		switch {
		case r.Error != "":
			_, err = fmt.Fprintf(w, "%s\terror: %s\n", r.Path, r.Error)
		case r.Eligible:
			_, err = fmt.Fprintf(w, "%s\teligible\t%s\n", r.Path, r.Format)
		default:
			_, err = fmt.Fprintf(w, "%s\tskipped\t%s\n", r.Path, r.Format)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
