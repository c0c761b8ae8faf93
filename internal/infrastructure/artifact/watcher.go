package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches the burst of events a single commit produces.
const DefaultDebounce = 250 * time.Millisecond

// Watcher calls a hook whenever the manifest of an artifact directory is
// replaced, which happens exactly once per commit.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(context.Context) error
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
}

// NewWatcher watches dir. The directory itself is watched rather than the
// manifest file because commits rename a new file into place.
func NewWatcher(dir string, debounce time.Duration, onChange func(context.Context) error, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{dir: dir, debounce: debounce, onChange: onChange, logger: logger, fsw: fsw}, nil
}

// Run processes events until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.logger.Info("watching artifacts", "dir", w.dir)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != ManifestName || !ev.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("artifact watcher error", "error", err)

		case <-fire:
			fire = nil
			w.logger.Info("artifact manifest changed, reloading")
			if err := w.onChange(ctx); err != nil {
				w.logger.Error("artifact reload failed", "error", err)
			}
		}
	}
}
