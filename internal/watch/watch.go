// Package watch reloads a store when another process rewrites its mirror
// file. It watches the data directory rather than the file itself, since
// sqlite replaces and truncates its -wal and -shm companions.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dmitrijs2005/zyntracker/internal/logging"
)

// DefaultDebounce groups the burst of events one sqlite commit produces.
const DefaultDebounce = 250 * time.Millisecond

// Reloader is the part of the store the watcher drives.
type Reloader interface {
	ReloadLocal(ctx context.Context) error
}

// Watcher calls Reloader.ReloadLocal after the mirror file changes.
type Watcher struct {
	dir      string
	base     string
	target   Reloader
	log      logging.Logger
	debounce time.Duration
}

type Option func(*Watcher)

func WithLogger(l logging.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New watches path, the mirror file, on behalf of target.
func New(path string, target Reloader, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      filepath.Dir(path),
		base:     filepath.Base(path),
		target:   target,
		log:      logging.Nop(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Matches reports whether an event for name concerns the mirror file or
// one of its journal files.
func (w *Watcher) Matches(name string) bool {
	return strings.HasPrefix(filepath.Base(name), w.base)
}

// Run blocks until ctx is done. Watch errors are logged and do not stop
// the loop; a failing reload is logged too.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.log.Info(ctx, "watching mirror", "dir", w.dir, "file", w.base)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.Matches(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn(ctx, "mirror watch error", "err", err)

		case <-timer.C:
			if err := w.target.ReloadLocal(ctx); err != nil && ctx.Err() == nil {
				w.log.Error(ctx, "mirror reload failed", "err", err)
			}
		}
	}
}
