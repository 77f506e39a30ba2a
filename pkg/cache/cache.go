// Package cache provides the time-bounded memo tables used by the selection
// engine: per-path validation verdicts and per-directory aggregate state.
package cache

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"selectree/pkg/clock"

	"go.uber.org/zap"
)

// Defaults for expiry and the background eviction sweep.
const (
	DefaultExpiry        = 60 * time.Second
	DefaultSweepInterval = 5 * time.Minute
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a path-keyed map whose entries expire after a fixed window.
// Expired entries are treated as absent on read even before a sweep removes them.
type TTL[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	expiry  time.Duration
	clock   clock.Clock
	name    string
	logger  *zap.Logger
}

// Option configures a TTL cache.
type Option func(*options)

type options struct {
	expiry time.Duration
	clock  clock.Clock
	logger *zap.Logger
}

// WithExpiry sets the expiry window.
func WithExpiry(d time.Duration) Option {
	return func(o *options) {
		o.expiry = d
	}
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger used by the sweeper.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// NewTTL creates an empty cache. name is only used in log fields.
func NewTTL[V any](name string, opts ...Option) *TTL[V] {
	o := options{expiry: DefaultExpiry, clock: clock.System{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.expiry <= 0 {
		o.expiry = DefaultExpiry
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &TTL[V]{
		entries: make(map[string]entry[V]),
		expiry:  o.expiry,
		clock:   o.clock,
		name:    name,
		logger:  o.logger,
	}
}

// Get returns the live value for key.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !c.clock.Now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with a fresh expiry.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.clock.Now().Add(c.expiry)}
	c.mu.Unlock()
}

// Delete removes key.
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateSubtree removes dir and every key below it.
func (c *TTL[V]) InvalidateSubtree(dir string) int {
	prefix := subtreePrefix(dir)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if key == dir || strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// InvalidateAncestors removes the entry of every directory from path's parent
// up to and including root. Paths outside root only drop their own parents
// until the file system root is reached.
func (c *TTL[V]) InvalidateAncestors(path, root string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, dir := range Ancestors(path, root) {
		delete(c.entries, dir)
	}
}

// Clear drops every entry.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len reports the number of physically stored entries, expired or not.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// EvictExpired drops expired entries and returns how many were removed.
func (c *TTL[V]) EvictExpired() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired entries every interval until ctx is done.
func (c *TTL[V]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.EvictExpired(); n > 0 {
				c.logger.Debug("Evicted expired cache entries", zap.String("cache", c.name), zap.Int("count", n))
			}
		}
	}
}

// Ancestors lists the directories from path's parent up to root, nearest first.
func Ancestors(path, root string) []string {
	var dirs []string
	current := filepath.Clean(path)
	root = filepath.Clean(root)
	for current != root {
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		dirs = append(dirs, parent)
		if parent == root {
			break
		}
		current = parent
	}
	return dirs
}

func subtreePrefix(dir string) string {
	sep := string(filepath.Separator)
	if strings.HasSuffix(dir, sep) {
		return dir
	}
	return dir + sep
}
