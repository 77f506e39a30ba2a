package selection

import (
	"path/filepath"
	"slices"
	"strings"

	"selectree/pkg/cache"

	"go.uber.org/zap"
)

// Toggle flips node's checked state. A directory's new state is the opposite
// of what its row shows (fully selected or not) and is pushed down to every
// eligible descendant. Ineligible nodes cannot be toggled.
func (e *Engine) Toggle(node Node) {
	if strings.TrimSpace(node.Path) == "" {
		return
	}
	node.Path = filepath.Clean(node.Path)

	e.mu.Lock()
	if !e.validate(node).Eligible() {
		e.mu.Unlock()
		e.logger.Debug("Ignoring toggle of ineligible node", zap.String("path", node.Path))
		return
	}

	value := !e.store.Get(node.Path)
	if node.IsDir() {
		depth := e.depthOf(node.Path)
		branch := []string{e.resolve(node.Path)}
		if st := e.dirState(node.Path, depth, branch); st.Total > 0 {
			value = st.Verdict != cache.All
		}

		e.store.Set(node.Path, value)
		w := e.newWalk(nil)
		w.apply(node.Path, value, depth, branch)
		e.logger.Debug("Propagated toggle", zap.String("dir", node.Path), zap.Bool("checked", value), zap.Int("descendants", w.written))
	} else {
		e.store.Set(node.Path, value)
	}
	e.invalidate(node.Path)
	e.mu.Unlock()

	e.notifier.Notify()
}

// SelectAll checks every eligible node under the root, honouring the active
// search filter if one is set.
func (e *Engine) SelectAll() {
	e.mu.RLock()
	q := e.query
	e.mu.RUnlock()
	e.selectAll(q)
}

// SelectAllMatching checks every eligible node that matches query, plus the
// directories that contain such nodes. An empty query selects everything.
func (e *Engine) SelectAllMatching(query string) {
	e.selectAll(CompileQuery(query))
}

func (e *Engine) selectAll(q *Query) {
	e.mu.Lock()
	w := e.newWalk(q)
	w.apply(e.root, true, 0, []string{e.resolve(e.root)})
	e.invalidate(e.root)
	e.mu.Unlock()

	e.logger.Debug("Selected all", zap.String("query", q.String()), zap.Int("checked", w.written))
	e.notifier.Notify()
}

// walk is one propagation pass. It runs on the caller's goroutine and is the
// only writer to the store during the pass.
type walk struct {
	e       *Engine
	query   *Query
	matches map[string]bool
	written int
}

func (e *Engine) newWalk(q *Query) *walk {
	return &walk{
		e:       e,
		query:   q,
		matches: make(map[string]bool),
	}
}

// apply writes value to every eligible descendant of dir, depth-first. It
// follows the same depth and cycle rules as dirState so that every child the
// aggregate counts has been written: a directory at the depth guard is written
// but not entered, and a child resolving to a directory on the current branch
// is neither written nor counted.
func (w *walk) apply(dir string, value bool, depth int, branch []string) {
	e := w.e
	if depth >= e.maxDepth {
		e.logger.Warn("Depth limit reached during propagation", zap.String("dir", dir), zap.Int("maxDepth", e.maxDepth))
		return
	}

	for _, child := range e.eligibleChildren(dir) {
		var real string
		if child.IsDir() {
			real = e.resolve(child.Path)
			if slices.Contains(branch, real) {
				e.logger.Warn("Directory cycle detected during propagation", zap.String("dir", child.Path), zap.String("target", real))
				continue
			}
		}
		if w.query != nil && !w.selected(child, depth+1) {
			continue
		}
		e.store.Set(child.Path, value)
		w.written++
		if child.IsDir() {
			next := make([]string, len(branch), len(branch)+1)
			copy(next, branch)
			w.apply(child.Path, value, depth+1, append(next, real))
		}
	}
}

// selected reports whether child passes the walk's filter.
func (w *walk) selected(child Node, depth int) bool {
	if !child.IsDir() {
		return w.query.Match(w.e.rel(child.Path))
	}
	return w.e.containsMatch(child.Path, w.query, depth, w.matches, map[string]bool{})
}

// containsMatch reports whether dir's own path matches q or any eligible
// file beneath it does. Results are memoized in memo for one pass.
func (e *Engine) containsMatch(dir string, q *Query, depth int, memo map[string]bool, onBranch map[string]bool) bool {
	if m, ok := memo[dir]; ok {
		return m
	}
	if q.Match(e.rel(dir)) {
		memo[dir] = true
		return true
	}
	if depth >= e.maxDepth {
		return false
	}
	real := e.resolve(dir)
	if onBranch[real] {
		return false
	}
	onBranch[real] = true
	defer delete(onBranch, real)

	found := false
	for _, child := range e.eligibleChildren(dir) {
		if child.IsDir() {
			found = e.containsMatch(child.Path, q, depth+1, memo, onBranch)
		} else {
			found = q.Match(e.rel(child.Path))
		}
		if found {
			break
		}
	}
	memo[dir] = found
	return found
}
