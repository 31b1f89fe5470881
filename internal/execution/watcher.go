package execution

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"vtr/internal/discovery"
)

// Watcher reruns tests when files under the project root change
type Watcher struct {
	root    string
	scanner *discovery.Scanner
	delay   time.Duration
	logger  *zap.Logger
}

// NewWatcher creates a Watcher for root. Directories the scanner skips are not watched.
func NewWatcher(root string, scanner *discovery.Scanner, delay time.Duration, logger *zap.Logger) *Watcher {
	return &Watcher{
		root:    root,
		scanner: scanner,
		delay:   delay,
		logger:  logger,
	}
}

// Watch blocks until ctx is done, calling onChange after each burst of file
// changes has settled. onChange never runs concurrently with itself.
func (w *Watcher) Watch(ctx context.Context, onChange func(ctx context.Context)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}

	trigger := make(chan struct{}, 1)
	debouncer := NewDebouncer(w.delay, func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	defer debouncer.Cancel()

	w.logger.Debug("watching", zap.String("root", w.root))

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-trigger:
			onChange(ctx)

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				// New directories need their own watch
				_ = w.addTree(fsw, event.Name)
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			w.logger.Debug("file changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			debouncer.Call()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// addTree watches path and every directory below it that the scanner does not skip
func (w *Watcher) addTree(fsw *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Vanished or unreadable entries are not worth failing over
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && w.scanner.Skip(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// ignored reports whether path lies in a skipped directory
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	dir := filepath.Dir(rel)
	for dir != "." && dir != string(filepath.Separator) {
		if w.scanner.Skip(filepath.Base(dir)) {
			return true
		}
		dir = filepath.Dir(dir)
	}
	// The path itself may be a skipped directory being created
	return w.scanner.Skip(filepath.Base(rel))
}
