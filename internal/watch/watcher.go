package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"shuttle/internal/config"
	"shuttle/internal/logging"
	"shuttle/internal/scan"
)

// Trigger is invoked once filesystem activity has been quiet for the
// configured debounce window.
type Trigger func()

// Watcher maintains recursive fsnotify watches on the monitored tree and
// collapses event bursts into single trigger calls.
type Watcher struct {
	root     string
	excludes []string
	debounce time.Duration
	trigger  Trigger
	logger   *slog.Logger

	fw   *fsnotify.Watcher
	done chan struct{}
}

// New builds a watcher for the configured root. The trigger runs on the
// watcher's own goroutine, so it must be cheap and non-blocking.
func New(cfg *config.Config, trigger Trigger, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	debounce := cfg.WatchDebounce()
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		root:     cfg.Paths.Root,
		excludes: append([]string(nil), cfg.Scan.Excludes...),
		debounce: debounce,
		trigger:  trigger,
		logger:   logging.NewComponentLogger(logger, "watch"),
	}
}

// Start registers watches on every non-excluded directory under the root and
// launches the event loop. The caller decides whether a failure here is fatal;
// the daemon treats it as a degradation and falls back to interval polling.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}
	w.fw = fw
	if err := w.addTree(w.root); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	w.done = make(chan struct{})
	go w.loop(ctx)
	return nil
}

// Close releases the underlying watches and waits for the event loop to exit.
func (w *Watcher) Close() {
	if w.fw != nil {
		w.fw.Close()
	}
	if w.done != nil {
		<-w.done
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	pending := false
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.handleEvent(ev) {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.debounce)
			pending = true
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(w.logger, "filesystem watch error", "watch_error",
				logging.Error(err))
		case <-debounce.C:
			if pending {
				pending = false
				w.logger.Debug("filesystem activity settled, requesting early scan")
				w.trigger()
			}
		}
	}
}

// handleEvent reports whether ev should reset the debounce window. New
// directories are added to the watch set here so trees created after startup
// keep reporting.
func (w *Watcher) handleEvent(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return true
	}
	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			if scan.Excluded(w.excludes, rel, true) {
				return false
			}
			if addErr := w.addTree(ev.Name); addErr != nil {
				w.logger.Debug("new directory vanished before watch",
					logging.String("path", ev.Name))
			}
			return true
		}
	}
	return !scan.Excluded(w.excludes, rel, false)
}

// addTree registers watches on dir and every non-excluded directory beneath
// it. Unreadable entries are skipped so a permission hole in one corner does
// not disable watching for the rest of the tree.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && scan.Excluded(w.excludes, rel, true) {
			return filepath.SkipDir
		}
		if addErr := w.fw.Add(path); addErr != nil {
			logging.WarnWithContext(w.logger, "cannot watch directory", "watch_add_failed",
				logging.String("path", path),
				logging.Error(addErr))
		}
		return nil
	})
}
