package lint

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/wizard/internal/logging"
)

// DefaultDebounce is how long the watcher waits after the last change before
// re-linting. Editors often write a file in several events.
const DefaultDebounce = 100 * time.Millisecond

// Watcher re-lints flow files when they change.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]string // cleaned absolute path -> path as given
	debounce time.Duration
	log      *logging.Logger
}

// NewWatcher starts watching the directories holding paths. Directories are
// watched rather than files so that editors that save by rename are seen.
func NewWatcher(paths []string, log *logging.Logger) (*Watcher, error) {
	if log == nil {
		log = logging.NopLogger()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]string, len(paths)),
		debounce: DefaultDebounce,
		log:      log,
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.files[abs] = p

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	return w, nil
}

// Run calls fn with fresh results for every batch of changed files until ctx
// is done. It closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context, fn func([]Result)) error {
	defer func() { _ = w.watcher.Close() }()

	// Debounce events - many editors create multiple events for a single save
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			path, ok := w.files[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			pending[path] = true
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			if len(pending) == 0 {
				continue
			}
			changed := slices.Sorted(maps.Keys(pending))
			pending = make(map[string]bool)

			w.log.Debug("re-linting changed flow files", "count", len(changed))
			fn(Files(changed))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("flow watcher error", "error", err)
		}
	}
}
