package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	berrors "git.home.luguber.info/inful/blogsmith/internal/errors"
	"git.home.luguber.info/inful/blogsmith/internal/events"
)

// Watcher translates filesystem events under the content and theme
// directories into BuildRequested events on the bus.
type Watcher struct {
	bus     *events.Bus
	dirs    []string
	watcher *fsnotify.Watcher
}

func NewWatcher(bus *events.Bus, dirs []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, berrors.EnvironmentWrap(err, "create filesystem watcher")
	}
	w := &Watcher{bus: bus, dirs: dirs, watcher: fsw}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue // absent dirs (e.g. no drafts yet) simply are not watched
		}
		if err := addRecursive(fsw, dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run consumes filesystem events until the context is canceled. Watch errors
// are logged, not fatal: a transient error on one save must not kill the
// server (the next event triggers a rebuild anyway).
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if ignorePath(ev.Name) {
		return
	}
	// New directories must be added to the watch before anything inside
	// them can be seen.
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addRecursive(w.watcher, ev.Name)
		}
	}
	slog.Debug("file change detected", "path", ev.Name, "op", ev.Op.String())

	_ = w.bus.Publish(ctx, events.ContentChanged{
		Path: ev.Name,
		Op:   ev.Op.String(),
		At:   time.Now(),
	})
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}

// ignorePath filters out editor temp/swap files and hidden files whose
// churn would otherwise cause spurious rebuilds.
func ignorePath(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
