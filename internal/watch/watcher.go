// Package watch reports debounced changes to documents in a folder.
package watch

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/archmetrics/internal/logging"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before reporting it.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches a single folder, not its subfolders.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	match    func(path string) bool
	debounce time.Duration
	logger   *logging.Logger
}

// New creates a Watcher on dir. Only paths accepted by match are reported;
// a nil match accepts everything. A non-positive debounce uses
// DefaultDebounce.
func New(dir string, match func(path string) bool, debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if match == nil {
		match = func(string) bool { return true }
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  watcher,
		dir:      filepath.Clean(dir),
		match:    match,
		debounce: debounce,
		logger:   logger.With("dir", dir),
	}, nil
}

// Run blocks until ctx is done, calling onChange with the sorted, de-duplicated
// paths that changed during each quiet period. onChange runs on the watch
// goroutine; events arriving meanwhile are reported in the next batch.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	defer func() { _ = w.watcher.Close() }()

	// Editors often emit several events for one save.
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C

	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			debounceTimer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.match(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			pending = make(map[string]struct{})

			w.logger.Debug("documents changed", "count", len(paths))
			onChange(ctx, paths)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err.Error())
		}
	}
}

// Dir returns the watched folder.
func (w *Watcher) Dir() string {
	return w.dir
}
