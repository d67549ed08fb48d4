// Package watcher reports changes to a fixed set of log files.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Event represents a change to one watched file.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors files through their parent directories, so a file that is
// replaced by rename or recreated after rotation keeps being reported.
type Watcher struct {
	fsw    *fsnotify.Watcher
	Events chan Event
	files  map[string]bool
	paths  []string
}

// New creates a Watcher for the given file paths. Each path must name an
// existing regular file.
func New(paths []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		Events: make(chan Event, 256),
		files:  make(map[string]bool),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		if !info.Mode().IsRegular() {
			fsw.Close()
			return nil, fmt.Errorf("%s is not a regular file", p)
		}
		if w.files[abs] {
			continue
		}

		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := fsw.Add(dir); err != nil {
				fsw.Close()
				return nil, fmt.Errorf("cannot watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
		w.files[abs] = true
		w.paths = append(w.paths, abs)
	}

	return w, nil
}

// Start forwards events for watched files until ctx is cancelled, then
// closes Events.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.files[filepath.Clean(ev.Name)] {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
				!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.Events <- Event{Path: filepath.Clean(ev.Name), Op: ev.Op}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

// Paths returns the absolute paths being watched.
func (w *Watcher) Paths() []string {
	return w.paths
}
