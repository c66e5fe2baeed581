// Package watch implements the debounced flavor-directory watcher from
// §13, grounded on the pack's fsnotify-based FileWatcher
// (AleutianLocal's services/trace/graph/file_watcher.go), generalized
// from a generic graph-rebuild trigger into a Registry.ReloadFrom
// caller for one (layer, directory) pair.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/graelo/gcode-language-server/internal/flavor"
)

// DefaultDebounceWindow matches the pack's default: batch bursts of
// filesystem events (an editor's save-as-delete-then-create, or a git
// checkout touching many files) into one reload.
const DefaultDebounceWindow = 150 * time.Millisecond

// Watcher watches one flavor directory and calls Registry.ReloadFrom
// for its layer whenever the directory's contents settle after a
// change.
type Watcher struct {
	dir      string
	layer    flavor.Layer
	registry *flavor.Registry
	logger   *logrus.Logger
	debounce time.Duration

	fsw  *fsnotify.Watcher
	done chan struct{}

	mu       sync.Mutex
	watching bool
}

// New constructs a Watcher for dir at layer l. The fsnotify.Watcher is
// created but watching does not begin until Start.
func New(dir string, l flavor.Layer, registry *flavor.Registry, logger *logrus.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:      dir,
		layer:    l,
		registry: registry,
		logger:   logger,
		debounce: DefaultDebounceWindow,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start adds dir (and any subdirectories, for fragment layouts) to the
// underlying fsnotify watch set and spawns the debounced reload loop.
// A directory that does not yet exist is not an error: fsnotify simply
// has nothing to watch, mirroring LoadDir's "missing is not an error"
// contract (§4.3).
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.fsw.Add(w.dir); err != nil {
		w.logger.WithError(err).WithField("dir", w.dir).Debug("flavor directory not watchable yet")
	}
	if entries, err := os.ReadDir(w.dir); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			sub := filepath.Join(w.dir, e.Name())
			if err := w.fsw.Add(sub); err != nil {
				w.logger.WithError(err).WithField("dir", sub).Debug("fragment directory not watchable")
			}
		}
	}

	go w.debounceLoop(ctx)
	return nil
}

// Stop ends the watch loop and releases the underlying fsnotify handle.
func (w *Watcher) Stop() {
	select {
	case <-w.done:
		return
	default:
		close(w.done)
	}
	w.fsw.Close()
	w.mu.Lock()
	w.watching = false
	w.mu.Unlock()
}

// debounceLoop batches fsnotify events for w.debounce before calling
// Registry.ReloadFrom once, so a burst of per-file writes (an editor's
// atomic save, a multi-file fragment-directory edit) triggers exactly
// one reload.
func (w *Watcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	reload := func() {
		if err := w.registry.ReloadFrom(w.layer, w.dir); err != nil {
			w.logger.WithError(err).WithField("dir", w.dir).Error("reloading flavor directory")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case _, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			reload()
			timer = nil
			timerC = nil
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).WithField("dir", w.dir).Warn("flavor directory watch error")
		}
	}
}
