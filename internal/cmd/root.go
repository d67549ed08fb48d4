// Package cmd implements the loglens command line.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/loglens/backend/internal/logging"
	"github.com/loglens/backend/internal/output"
	"github.com/loglens/backend/internal/parser"
	"github.com/loglens/backend/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// options holds settings shared by every subcommand. Flags, LOGLENS_*
// environment variables and the config file feed the same viper instance.
type options struct {
	v       *viper.Viper
	cfgFile string
}

func (o *options) outputFormat() string { return o.v.GetString("output") }
func (o *options) levels() string       { return o.v.GetString("level") }

func (o *options) parseCap() int64 {
	if n := o.v.GetInt64("parse-cap"); n > 0 {
		return n
	}
	return session.DefaultParseCap
}

func (o *options) palette() (*parser.Palette, error) {
	path := o.v.GetString("palette")
	if path == "" {
		return parser.DefaultPalette(), nil
	}
	return parser.LoadPalette(path)
}

func (o *options) renderer(cmd *cobra.Command) (output.Renderer, error) {
	pal, err := o.palette()
	if err != nil {
		return nil, fmt.Errorf("load palette: %w", err)
	}
	return output.New(o.outputFormat(), cmd.OutOrStdout(), pal)
}

func (o *options) initConfig() error {
	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			o.v.AddConfigPath(home)
		}
		o.v.AddConfigPath(".")
		o.v.SetConfigName(".loglens")
		o.v.SetConfigType("yaml")
	}

	o.v.SetEnvPrefix("LOGLENS")
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()

	if err := o.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	logging.Init("text", logging.ParseLevel(o.v.GetString("log-level")))
	return nil
}

// NewRootCmd builds the loglens command tree.
func NewRootCmd() *cobra.Command {
	o := &options{v: viper.New()}

	root := &cobra.Command{
		Use:   "loglens",
		Short: "Inspect, highlight and watch log files",
		Long: `loglens detects the format of a log file, parses it into records and
summarizes severities, HTTP status classes and time range. It can also print
the file with syntax highlighting and re-summarize it whenever it changes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&o.cfgFile, "config", "c", "", "config file (default: $HOME/.loglens.yaml)")
	flags.StringP("output", "o", "text", "output format: text, json")
	flags.StringP("level", "l", "", "filter listed entries by severity (comma-separated: error,warning)")
	flags.Int64("parse-cap", session.DefaultParseCap, "maximum number of leading bytes to parse")
	flags.String("palette", "", "YAML palette file overriding level and highlight colours")
	flags.String("log-level", "warn", "diagnostic log level: debug, info, warn, error")
	for _, name := range []string{"output", "level", "parse-cap", "palette", "log-level"} {
		_ = o.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newInspectCmd(o),
		newHighlightCmd(o),
		newWatchCmd(o),
		newProbeCmd(o),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDocument opens path and runs the first refresh.
func openDocument(o *options, path string) (*session.Document, *session.FileSource, error) {
	src, err := session.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	doc := session.NewDocument(path, src, session.Options{ParseCap: o.parseCap()})
	if err := doc.Refresh(); err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, src, nil
}
