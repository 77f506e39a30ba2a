package combine

import (
	"sort"
	"strings"
)

type treeNode struct {
	name     string
	children map[string]*treeNode
}

// renderTree draws files (slash-separated relative paths) as an indented tree
// under rootName. Directories sort before files, then case-insensitively.
func renderTree(rootName string, files []string) string {
	top := &treeNode{children: map[string]*treeNode{}}
	for _, f := range files {
		n := top
		for _, part := range strings.Split(f, "/") {
			child, ok := n.children[part]
			if !ok {
				child = &treeNode{name: part, children: map[string]*treeNode{}}
				n.children[part] = child
			}
			n = child
		}
	}

	var b strings.Builder
	b.WriteString(rootName + "/\n")
	writeTree(&b, top, "")
	return b.String()
}

func writeTree(b *strings.Builder, n *treeNode, prefix string) {
	kids := make([]*treeNode, 0, len(n.children))
	for _, c := range n.children {
		kids = append(kids, c)
	}
	sort.Slice(kids, func(i, j int) bool {
		di, dj := len(kids[i].children) > 0, len(kids[j].children) > 0
		if di != dj {
			return di
		}
		return strings.ToLower(kids[i].name) < strings.ToLower(kids[j].name)
	})

	for i, c := range kids {
		connector, extension := "├── ", "│   "
		if i == len(kids)-1 {
			connector, extension = "└── ", "    "
		}
		if len(c.children) > 0 {
			b.WriteString(prefix + connector + c.name + "/\n")
			writeTree(b, c, prefix+extension)
			continue
		}
		b.WriteString(prefix + connector + c.name + "\n")
	}
}
