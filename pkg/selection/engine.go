// Package selection owns the checked-state of a file tree: toggling with
// recursive propagation, tri-state directory aggregation, search filtering and
// the caches that keep those queries cheap.
package selection

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"selectree/pkg/cache"
	"selectree/pkg/clock"
	"selectree/pkg/fsys"
	"selectree/pkg/ignore"
	"selectree/pkg/notify"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Defaults for Options fields left zero.
const (
	DefaultMaxDepth      = 50
	DefaultFanOut        = 8
	DefaultIOConcurrency = 32
	filteredCacheSize    = 512
)

// ConfigLoader supplies ignore rules and the size limit. It is called on
// construction and on every Refresh.
type ConfigLoader interface {
	LoadConfig() ignore.Config
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Loader        ConfigLoader
	FS            fsys.FileSystem
	Clock         clock.Clock
	Expiry        time.Duration // Cache entry lifetime.
	SweepInterval time.Duration // Background eviction period.
	Debounce      time.Duration // Re-render coalescing window.
	MaxDepth      int           // Recursion guard for propagation and aggregation.
	FanOut        int           // Concurrent child computations per directory.
	Logger        *zap.Logger
}

// Engine is the selection state of one open tree. All public methods are safe
// to call from multiple goroutines; mutations are serialized, queries share.
type Engine struct {
	root     string
	loader   ConfigLoader
	fs       fsys.FileSystem
	maxDepth int
	fanOut   int
	logger   *zap.Logger

	// mu serializes mutations against queries. Internal helpers never lock it.
	mu      sync.RWMutex
	store   *Store
	matcher *ignore.Matcher
	query   *Query

	validation *cache.ValidationCache
	dirStates  *cache.DirectoryStateCache
	filtered   *lru.Cache[string, []Node]
	flight     singleflight.Group
	ioSem      chan struct{}

	notifier *notify.Notifier
	cancel   context.CancelFunc
}

// New creates an engine rooted at root and loads its ignore rules.
func New(root string, opts Options) (*Engine, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs = filepath.Clean(abs)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FS == nil {
		opts.FS = fsys.OS{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Loader == nil {
		opts.Loader = ignore.Loader{Root: abs, Logger: logger}
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.FanOut <= 0 {
		opts.FanOut = DefaultFanOut
	}

	filtered, err := lru.New[string, []Node](filteredCacheSize)
	if err != nil {
		return nil, err
	}

	cacheOpts := []cache.Option{
		cache.WithClock(opts.Clock),
		cache.WithExpiry(opts.Expiry),
		cache.WithLogger(logger),
	}

	e := &Engine{
		root:       abs,
		loader:     opts.Loader,
		fs:         opts.FS,
		maxDepth:   opts.MaxDepth,
		fanOut:     opts.FanOut,
		logger:     logger.With(zap.String("root", abs)),
		store:      NewStore(),
		validation: cache.NewValidationCache(cacheOpts...),
		dirStates:  cache.NewDirectoryStateCache(cacheOpts...),
		filtered:   filtered,
		ioSem:      make(chan struct{}, DefaultIOConcurrency),
		notifier:   notify.NewNotifier(opts.Debounce),
	}
	e.matcher = ignore.NewMatcher(opts.Loader.LoadConfig(), opts.FS)

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go e.validation.Run(ctx, opts.SweepInterval)
	go e.dirStates.Run(ctx, opts.SweepInterval)

	return e, nil
}

// Close stops background sweeps and drops pending notifications.
func (e *Engine) Close() {
	e.cancel()
	e.notifier.Close()
}

// Root returns the absolute tree root.
func (e *Engine) Root() string {
	return e.root
}

// Subscribe registers fn to run after (debounced) state changes.
func (e *Engine) Subscribe(fn func()) (unsubscribe func()) {
	return e.notifier.Subscribe(fn)
}

// Changes receives a value after (debounced) state changes.
func (e *Engine) Changes() <-chan struct{} {
	return e.notifier.C()
}

// SoftUpdate asks the view to repaint without touching selection state.
func (e *Engine) SoftUpdate() {
	e.notifier.Notify()
}

// Render delivers a repaint signal immediately. Must not be called while
// holding a subscriber lock that the subscriber itself takes.
func (e *Engine) Render() {
	e.notifier.NotifyNow()
}

// SetChecked writes one identity's bit without propagation.
func (e *Engine) SetChecked(path string, value bool, fire bool) {
	if strings.TrimSpace(path) == "" {
		return
	}
	path = filepath.Clean(path)

	e.mu.Lock()
	e.store.Set(path, value)
	e.invalidate(path)
	e.mu.Unlock()

	if fire {
		e.notifier.Notify()
	}
}

// IsChecked returns the stored bit for path.
func (e *Engine) IsChecked(path string) bool {
	if path == "" {
		return false
	}
	return e.store.Get(filepath.Clean(path))
}

// UncheckAll clears the selection and both caches.
func (e *Engine) UncheckAll() {
	e.mu.Lock()
	e.store.Clear()
	e.clearCaches()
	e.mu.Unlock()

	e.logger.Debug("Cleared selection")
	e.notifier.Notify()
}

// Refresh reloads ignore rules and clears the selection and caches in one step.
func (e *Engine) Refresh() {
	cfg := e.loader.LoadConfig()

	e.mu.Lock()
	e.matcher = ignore.NewMatcher(cfg, e.fs)
	e.store.Clear()
	e.clearCaches()
	e.mu.Unlock()

	e.logger.Info("Refreshed tree", zap.Int("ignorePatterns", cfg.Rules.Len()))
	e.notifier.Notify()
}

// ReloadRules reloads ignore rules and clears caches but keeps the selection.
func (e *Engine) ReloadRules() {
	cfg := e.loader.LoadConfig()

	e.mu.Lock()
	e.matcher = ignore.NewMatcher(cfg, e.fs)
	e.clearCaches()
	e.mu.Unlock()

	e.logger.Debug("Reloaded ignore rules", zap.Int("ignorePatterns", cfg.Rules.Len()))
	e.notifier.Notify()
}

// Invalidate drops cached facts about path, everything under it, its
// ancestors' aggregates and its parent's filtered listing. Used when the
// file system changes underneath the tree.
func (e *Engine) Invalidate(path string) {
	if path == "" {
		return
	}
	path = filepath.Clean(path)

	e.mu.Lock()
	e.invalidate(path)
	e.filtered.Remove(path)
	for _, dir := range cache.Ancestors(path, e.root) {
		e.filtered.Remove(dir)
	}
	e.mu.Unlock()
}

// SetQuery activates a search filter; an empty string clears it.
// Filtered listings are dropped whenever the query text changes.
func (e *Engine) SetQuery(raw string) {
	q := CompileQuery(raw)

	e.mu.Lock()
	changed := e.query.String() != q.String()
	if changed {
		e.query = q
		e.filtered.Purge()
	}
	e.mu.Unlock()

	if changed {
		e.notifier.Notify()
	}
}

// Query returns the active search text.
func (e *Engine) Query() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.query.String()
}

// Excluded reports whether path matches the current ignore rules. Paths
// outside the root are reported as excluded.
func (e *Engine) Excluded(path string) bool {
	if strings.TrimSpace(path) == "" {
		return true
	}
	path = filepath.Clean(path)
	if !e.withinRoot(path) {
		return true
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.matcher.IsExcluded(e.rel(path))
}

// invalidate removes path's subtree from both caches and its ancestors'
// aggregates. Caller holds mu.
func (e *Engine) invalidate(path string) {
	e.validation.InvalidateSubtree(path)
	e.dirStates.InvalidateSubtree(path)
	e.dirStates.InvalidateAncestors(path, e.root)
}

func (e *Engine) clearCaches() {
	e.validation.Clear()
	e.dirStates.Clear()
	e.filtered.Purge()
}

// rel returns the slash-separated path of abs relative to the root.
func (e *Engine) rel(abs string) string {
	r, err := filepath.Rel(e.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return ignore.NormalizePath(r)
}

func (e *Engine) withinRoot(abs string) bool {
	r, err := filepath.Rel(e.root, abs)
	if err != nil {
		return false
	}
	return r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator))
}

// depthOf counts the path components of abs below the root. The root and
// paths outside it are at depth 0.
func (e *Engine) depthOf(abs string) int {
	if !e.withinRoot(abs) {
		return 0
	}
	r := e.rel(abs)
	if r == "" || r == "." {
		return 0
	}
	return strings.Count(r, "/") + 1
}
