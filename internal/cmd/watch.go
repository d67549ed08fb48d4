package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/loglens/backend/internal/output"
	"github.com/loglens/backend/internal/session"
	"github.com/loglens/backend/internal/views"
	"github.com/loglens/backend/internal/watcher"
	"github.com/spf13/cobra"
)

func newWatchCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>...",
		Short: "Re-summarize log files whenever they change",
		Long: `Watch one or more log files and print a fresh information view each time
a file is written, replaced or recreated after rotation.

Examples:
  loglens watch /var/log/app.log
  loglens watch app.log worker.log --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r, err := o.renderer(cmd)
			if err != nil {
				return err
			}

			w, err := watcher.New(args)
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}

			docs := make(map[string]*watchedDoc, len(w.Paths()))
			defer func() {
				for _, d := range docs {
					d.close()
				}
			}()
			for _, path := range w.Paths() {
				d := &watchedDoc{path: path, parseCap: o.parseCap()}
				if err := d.reload(); err != nil {
					slog.Warn("initial parse failed", "path", path, "error", err)
				} else if err := d.render(r); err != nil {
					return err
				}
				docs[path] = d
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "watching %d file(s)\n", len(docs))
			go w.Start(ctx)
			return followEvents(w.Events, docs, r)
		},
	}
}

// followEvents reloads and re-renders documents until events is closed.
func followEvents(events <-chan watcher.Event, docs map[string]*watchedDoc, r output.Renderer) error {
	for ev := range events {
		d, ok := docs[ev.Path]
		if !ok {
			continue
		}
		if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
			slog.Info("file went away, waiting for it to return", "path", ev.Path, "op", ev.Op.String())
			continue
		}
		if err := d.reload(); err != nil {
			slog.Warn("refresh failed", "path", ev.Path, "error", err)
			continue
		}
		if err := d.render(r); err != nil {
			return err
		}
	}
	return nil
}

// watchedDoc is a document reopened from disk on every change, since an
// open FileSource keeps the size it had when opened.
type watchedDoc struct {
	path     string
	parseCap int64
	doc      *session.Document
	src      *session.FileSource
}

func (d *watchedDoc) reload() error {
	src, err := session.OpenFile(d.path)
	if err != nil {
		return err
	}
	if d.doc == nil {
		d.doc = session.NewDocument(d.path, src, session.Options{ParseCap: d.parseCap})
	} else {
		d.doc.SetSource(src)
	}
	old := d.src
	d.src = src
	if old != nil {
		old.Close()
	}
	return d.doc.Refresh()
}

func (d *watchedDoc) render(r output.Renderer) error {
	return r.Information(d.path, views.BuildInformation(d.doc))
}

func (d *watchedDoc) close() {
	if d.src != nil {
		d.src.Close()
	}
}
