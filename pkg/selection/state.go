package selection

import (
	"path/filepath"
	"slices"
	"strings"

	"selectree/pkg/cache"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DirectoryState returns the tri-state verdict for dir. Unknown or empty
// paths are reported as none.
func (e *Engine) DirectoryState(dir string) cache.Verdict {
	return e.DirectoryStateDetail(dir).Verdict
}

// DirectoryStateDetail returns the verdict with its eligible and checked child counts.
func (e *Engine) DirectoryStateDetail(dir string) cache.DirState {
	if strings.TrimSpace(dir) == "" {
		return cache.DirState{}
	}
	dir = filepath.Clean(dir)

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dirState(dir, e.depthOf(dir), []string{e.resolve(dir)})
}

// childResult is what one concurrently evaluated child reports back.
// Sub-tasks only return values; the caller merges them.
type childResult struct {
	eligible bool
	dir      bool
	bit      bool
	state    cache.DirState
}

// dirState serves dir's aggregate from cache or computes it. depth counts path
// components below the root, so a cached aggregate means the same thing no
// matter which directory the computation started from. ancestors holds the
// resolved paths on the current branch and guards against symlink cycles.
func (e *Engine) dirState(dir string, depth int, ancestors []string) cache.DirState {
	if st, ok := e.dirStates.Get(dir); ok {
		return st
	}

	v, _, _ := e.flight.Do(dir, func() (any, error) {
		if st, ok := e.dirStates.Get(dir); ok {
			return st, nil
		}
		st := e.computeDirState(dir, depth, ancestors)
		e.dirStates.Set(dir, st)
		return st, nil
	})
	return v.(cache.DirState)
}

// computeDirState stops at the same guard as propagation: a directory at
// maxDepth reports no eligible children and so counts by its literal bit.
func (e *Engine) computeDirState(dir string, depth int, ancestors []string) cache.DirState {
	if depth >= e.maxDepth {
		e.logger.Warn("Depth limit reached, not descending", zap.String("dir", dir), zap.Int("maxDepth", e.maxDepth))
		return cache.DirState{}
	}
	children := e.listChildren(dir)
	results := make([]childResult, len(children))

	var g errgroup.Group
	g.SetLimit(e.fanOut)
	for i, child := range children {
		g.Go(func() error {
			results[i] = e.evaluateChild(child, depth+1, ancestors)
			return nil
		})
	}
	_ = g.Wait()

	return aggregate(results)
}

// evaluateChild computes one child's contribution to its parent's aggregate.
func (e *Engine) evaluateChild(child Node, depth int, ancestors []string) childResult {
	if !e.validate(child).Eligible() {
		return childResult{}
	}

	r := childResult{eligible: true, dir: child.IsDir(), bit: e.store.Get(child.Path)}
	if !child.IsDir() {
		return r
	}

	real := e.resolve(child.Path)
	if slices.Contains(ancestors, real) {
		e.logger.Warn("Directory cycle detected, skipping", zap.String("dir", child.Path), zap.String("target", real))
		return childResult{}
	}

	branch := make([]string, len(ancestors), len(ancestors)+1)
	copy(branch, ancestors)
	r.state = e.dirState(child.Path, depth, append(branch, real))
	return r
}

// aggregate folds child results into a verdict. A child directory with no
// eligible children of its own counts by its literal bit.
func aggregate(results []childResult) cache.DirState {
	var st cache.DirState
	partial := false

	for _, r := range results {
		if !r.eligible {
			continue
		}
		st.Total++
		switch {
		case !r.dir || r.state.Total == 0:
			if r.bit {
				st.Checked++
			}
		case r.state.Verdict == cache.All:
			st.Checked++
		case r.state.Verdict == cache.Partial:
			partial = true
		}
	}

	switch {
	case st.Total == 0 || (st.Checked == 0 && !partial):
		st.Verdict = cache.None
	case partial || st.Checked < st.Total:
		st.Verdict = cache.Partial
	default:
		st.Verdict = cache.All
	}
	return st
}
