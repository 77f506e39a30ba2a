package tui

import (
	"selectree/pkg/selection"
)

// RowSource is the read-only engine surface the tree view renders from.
type RowSource interface {
	Children(node *selection.Node) []selection.Node
	TreeItem(node selection.Node) selection.TreeItem
}

// Row is one visible line of the tree.
type Row struct {
	Item     selection.TreeItem
	Depth    int
	Expanded bool
}

// BuildRows flattens the visible part of the tree. A directory's children are
// listed when it is in expanded, or always when expandAll is set (used while a
// search filter narrows the tree).
func BuildRows(src RowSource, expanded map[string]bool, expandAll bool) []Row {
	var rows []Row
	var walk func(parent *selection.Node, depth int)
	walk = func(parent *selection.Node, depth int) {
		for _, child := range src.Children(parent) {
			open := child.IsDir() && (expandAll || expanded[child.Path])
			rows = append(rows, Row{Item: src.TreeItem(child), Depth: depth, Expanded: open})
			if open && depth < selection.DefaultMaxDepth {
				walk(&child, depth+1)
			}
		}
	}
	walk(nil, 0)
	return rows
}
