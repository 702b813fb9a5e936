package release

import (
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/castforge-project/castforge/internal/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// WatchHandler reacts to release folder changes.
type WatchHandler interface {
	// HandleUpdate is invoked after a release folder's files settle.
	HandleUpdate(dir string) error
	// HandleRemove is invoked when a release folder is removed or renamed away.
	HandleRemove(dir string) error
}

// Watcher watches a directory of release folders and invokes a handler for a
// release whenever its files settle after a change.
type Watcher struct {
	root    string
	handler WatchHandler
	logger  *zap.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher over a directory of release folders.
// Each direct subdirectory of root is treated as one release.
func NewWatcher(root string, handler WatchHandler, logger *zap.Logger) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to make watcher")
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir // dot-prefixed files/directories are excluded from handling
			}

			return watcher.Add(path) // path is always absolute
		}

		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, errors.Wrap(err, "failed to walk release folders")
	}

	w := &Watcher{
		root:    absRoot,
		handler: handler,
		logger:  logger,
		watcher: watcher,
	}

	go w.handleFsEvents()
	return w, nil
}

// releaseDir maps an event path to its release folder, the direct subdirectory
// of root it lives under. Paths outside root and root itself map to "".
func (w *Watcher) releaseDir(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}

	parts := strings.SplitN(rel, string(filepath.Separator), 2)
	return filepath.Join(w.root, parts[0])
}

func (w *Watcher) handleFsEvents() {
	var (
		waitFor = 100 * time.Millisecond
		timers  = make(map[string]*time.Timer)
		mu      sync.Mutex
	)

	for {
		select {
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			w.logger.Error(
				"filesystem watch error",
				zap.String("path", w.root),
				zap.Error(err),
			)
		case e, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if strings.HasPrefix(filepath.Base(e.Name), ".") {
				continue // dot-prefixed files/directories are excluded from handling
			}

			dir := w.releaseDir(e.Name)
			if dir == "" {
				continue
			}

			if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) { // event deduplication - run handler 100ms after last event, else reset timer
				mu.Lock()
				t, ok := timers[dir]
				mu.Unlock()

				if !ok {
					t = time.AfterFunc(math.MaxInt64, func() {
						if err := w.handleSettled(dir); err != nil {
							w.logger.Error(
								"filesystem event handler error",
								zap.String("path", dir),
								zap.Error(err),
							)
						}

						mu.Lock()
						delete(timers, dir)
						mu.Unlock()
					})
					t.Stop()

					mu.Lock()
					timers[dir] = t
					mu.Unlock()
				}

				t.Reset(waitFor)
			} else if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) { // no deduplication
				if err := w.handleRemove(e.Name, dir); err != nil {
					w.logger.Error(
						"filesystem event handler error",
						zap.String("path", dir),
						zap.Error(err),
					)
				}
			}
		}
	}
}

// handleSettled runs once a release folder's events settle. It re-reads the
// folder rather than acting on any single event, individual event paths may
// already be gone by the time the timer fires.
func (w *Watcher) handleSettled(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // gone before the timer fired
		}

		return err
	}

	watched := w.watcher.WatchList()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil // removed mid-walk
			}

			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if slices.Contains(watched, path) {
			return nil
		}

		w.logger.Info(
			"adding filesystem watcher to directory",
			zap.String("path", path),
		)
		return w.watcher.Add(path)
	})
	if err != nil {
		return err
	}

	return w.handler.HandleUpdate(dir)
}

func (w *Watcher) handleRemove(path, dir string) error {
	if slices.Contains(w.watcher.WatchList(), path) {
		w.logger.Info(
			"removing filesystem watcher from directory",
			zap.String("path", path),
		)
		if err := w.watcher.Remove(path); err != nil {
			return err
		}
	}

	if path == dir { // the release folder itself is gone
		return w.handler.HandleRemove(dir)
	}

	return nil
}

// Close stops watching. The watcher should not be used any further after calling Close.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
