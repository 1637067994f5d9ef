// Package watch republishes notes when they change on disk.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a note must stay quiet before it is handled.
const DefaultDebounce = 2 * time.Second

// Handler processes one changed note. relPath is vault-relative with
// forward slashes.
type Handler func(ctx context.Context, relPath string) error

// Watcher feeds changed Markdown notes under a folder to a Handler, one at
// a time.
type Watcher struct {
	root     string
	folder   string
	debounce time.Duration
	handler  Handler
	logger   *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithFolder limits the watcher to notes under folder (vault-relative).
func WithFolder(folder string) Option {
	return func(w *Watcher) {
		w.folder = strings.Trim(filepath.ToSlash(folder), "/")
	}
}

// WithDebounce sets the quiet period before a note is handled.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a Watcher over the vault at root.
func New(root string, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: DefaultDebounce,
		handler:  handler,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Handler errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("root", w.root), slog.String("folder", w.folder))

	ready := make(chan string)
	deb := newDebouncer(w.debounce, func(rel string) {
		select {
		case ready <- rel:
		case <-ctx.Done():
		}
	})
	defer deb.stop()
	schedule := deb.schedule

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher: stopped")
			return nil

		case rel := <-ready:
			if err := w.handler(ctx, rel); err != nil {
				w.logger.Warn("watcher: handle failed", slog.String("path", rel), slog.String("error", err.Error()))
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						w.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
						continue
					}
					w.scheduleDir(ev.Name, schedule)
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if rel, ok := w.relevant(ev.Name); ok {
				schedule(rel)
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant reports whether abs is a note under the watched folder and
// returns its vault-relative path.
func (w *Watcher) relevant(abs string) (string, bool) {
	if !strings.HasSuffix(abs, ".md") {
		return "", false
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return "", false
	}
	for _, part := range strings.Split(path.Dir(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return "", false
		}
	}
	if w.folder != "" && !strings.HasPrefix(rel, w.folder+"/") {
		return "", false
	}
	return rel, true
}

// scheduleDir queues notes that already exist in a newly created directory.
func (w *Watcher) scheduleDir(dir string, schedule func(string)) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if rel, ok := w.relevant(p); ok {
			schedule(rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and its non-hidden subdirectories.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
