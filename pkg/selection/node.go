package selection

import (
	"path/filepath"

	"selectree/pkg/cache"
)

// Kind tags a tree node as a file or a directory.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Node identifies one entry of the tree by its absolute path.
type Node struct {
	Kind Kind
	Path string
}

// File returns a file node.
func File(path string) Node { return Node{Kind: KindFile, Path: path} }

// Directory returns a directory node.
func Directory(path string) Node { return Node{Kind: KindDirectory, Path: path} }

// IsDir reports whether n is a directory.
func (n Node) IsDir() bool { return n.Kind == KindDirectory }

// Name is the base name of the node.
func (n Node) Name() string { return filepath.Base(n.Path) }

// CheckState is what a tree row shows in its checkbox.
type CheckState int

const (
	Unchecked CheckState = iota
	PartiallyChecked
	Checked
)

func (s CheckState) String() string {
	switch s {
	case Checked:
		return "checked"
	case PartiallyChecked:
		return "partial"
	default:
		return "unchecked"
	}
}

func checkStateOf(v cache.Verdict) CheckState {
	switch v {
	case cache.All:
		return Checked
	case cache.Partial:
		return PartiallyChecked
	default:
		return Unchecked
	}
}

// TreeItem is the read-only projection of a node for a rendering host.
type TreeItem struct {
	Node        Node
	Label       string
	RelPath     string
	State       CheckState
	Collapsible bool
	Tooltip     string
}
