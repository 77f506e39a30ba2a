// Package watcher keeps a selection engine's caches in step with the file
// system by watching every non-excluded directory under its root.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"selectree/pkg/ignore"
	"selectree/pkg/notify"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var ErrAlreadyStarted = errors.New("watcher already started")

// DefaultDebounceDuration merges bursts of events (editors, git checkouts)
// into one repaint.
const DefaultDebounceDuration = 100 * time.Millisecond

// Target is the engine surface the watcher drives.
type Target interface {
	Root() string
	Excluded(path string) bool
	Invalidate(path string)
	SoftUpdate()
	ReloadRules()
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debounceDuration = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// Watcher forwards file system changes to a Target.
type Watcher struct {
	target           Target
	debounceDuration time.Duration
	logger           *zap.Logger

	mu            sync.Mutex
	fsWatcher     *fsnotify.Watcher
	debouncer     *notify.Debouncer
	reloadPending bool
	cancel        context.CancelFunc
	done          chan struct{}
}

// New creates a watcher for target. Call Start to begin watching.
func New(target Target, opts ...Option) *Watcher {
	w := &Watcher{
		target:           target,
		debounceDuration: DefaultDebounceDuration,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	w.debouncer = notify.NewDebouncer(w.debounceDuration)
	return w
}

// Start registers the directory tree and processes events until ctx is done
// or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsWatcher != nil {
		return ErrAlreadyStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsWatcher = fsw
	n := w.addTree(w.target.Root())
	w.logger.Debug("Watching directories", zap.String("root", w.target.Root()), zap.Int("directories", n))

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx, fsw, w.done)
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.fsWatcher == nil {
		w.mu.Unlock()
		return
	}
	w.cancel()
	done := w.done
	fsw := w.fsWatcher
	w.fsWatcher = nil
	w.mu.Unlock()

	<-done
	fsw.Close()
	w.debouncer.Cancel()
}

// addTree adds dir and every non-excluded directory beneath it. Caller holds mu.
func (w *Watcher) addTree(dir string) int {
	added := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("Cannot walk path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.target.Root() && w.target.Excluded(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", zap.String("dir", path), zap.Error(err))
			return nil
		}
		added++
		return nil
	})
	return added
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	path := filepath.Clean(event.Name)
	w.target.Invalidate(path)

	base := filepath.Base(path)
	isRules := base == ignore.VCSIgnoreFile || base == ignore.ToolIgnoreFile

	w.mu.Lock()
	if isRules {
		w.reloadPending = true
	}
	if event.Op&fsnotify.Create != 0 && w.fsWatcher != nil {
		if info, err := os.Stat(path); err == nil && info.IsDir() && !w.target.Excluded(path) {
			w.addTree(path)
		}
	}
	w.mu.Unlock()

	w.logger.Debug("File system change", zap.String("path", path), zap.String("op", event.Op.String()))
	w.debouncer.Trigger(w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	reload := w.reloadPending
	w.reloadPending = false
	w.mu.Unlock()

	if reload {
		w.logger.Info("Ignore rules changed, reloading")
		w.target.ReloadRules()
		return
	}
	w.target.SoftUpdate()
}
