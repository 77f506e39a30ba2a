package selection

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Children lists the rows under node (the root when node is nil). Ineligible
// entries are hidden. With a search filter active only matching files and
// directories containing a match are listed; those listings are cached per
// directory until the query changes.
func (e *Engine) Children(node *Node) []Node {
	dir := e.root
	if node != nil {
		if !node.IsDir() || strings.TrimSpace(node.Path) == "" {
			return nil
		}
		dir = filepath.Clean(node.Path)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.query == nil {
		return e.eligibleChildren(dir)
	}
	if cached, ok := e.filtered.Get(dir); ok {
		return cached
	}

	memo := make(map[string]bool)
	var out []Node
	for _, child := range e.eligibleChildren(dir) {
		if child.IsDir() {
			if e.containsMatch(child.Path, e.query, 0, memo, map[string]bool{}) {
				out = append(out, child)
			}
			continue
		}
		if e.query.Match(e.rel(child.Path)) {
			out = append(out, child)
		}
	}
	e.filtered.Add(dir, out)
	return out
}

// TreeItem projects node for display. Directories show their aggregate
// verdict; files show their stored bit.
func (e *Engine) TreeItem(node Node) TreeItem {
	if strings.TrimSpace(node.Path) == "" {
		return TreeItem{Node: node}
	}
	node.Path = filepath.Clean(node.Path)

	item := TreeItem{
		Node:        node,
		Label:       node.Name(),
		RelPath:     e.rel(node.Path),
		Collapsible: node.IsDir(),
	}

	if node.IsDir() {
		st := e.DirectoryStateDetail(node.Path)
		item.State = checkStateOf(st.Verdict)
		item.Tooltip = fmt.Sprintf("%s (%d/%d selected)", item.RelPath, st.Checked, st.Total)
		return item
	}

	if e.IsChecked(node.Path) {
		item.State = Checked
	}
	item.Tooltip = item.RelPath
	if info, err := e.stat(node.Path); err == nil {
		item.Tooltip = fmt.Sprintf("%s (%d bytes)", item.RelPath, info.Size())
	}
	return item
}
