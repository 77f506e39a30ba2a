package selection

import (
	"sort"
)

// CheckedItems returns every identity whose stored bit is true, files and
// directories alike, sorted.
func (e *Engine) CheckedItems() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Checked()
}

// CheckedRelative returns CheckedItems as de-duplicated root-relative,
// slash-separated paths. Identities outside the root, the root itself and
// paths the ignore rules exclude are dropped.
func (e *Engine) CheckedRelative() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.relativize(e.store.Checked(), false)
}

// CheckedFiles is CheckedRelative restricted to eligible regular files: the
// list handed to a combining tool.
func (e *Engine) CheckedFiles() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.relativize(e.store.Checked(), true)
}

func (e *Engine) relativize(ids []string, filesOnly bool) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !e.withinRoot(id) {
			continue
		}
		rel := e.rel(id)
		if rel == "" || seen[rel] || e.matcher.IsExcluded(rel) {
			continue
		}
		if filesOnly {
			n := e.kindOf(id)
			if n.IsDir() || !e.validate(n).Eligible() {
				continue
			}
		}
		seen[rel] = true
		out = append(out, rel)
	}
	sort.Strings(out)
	return out
}
