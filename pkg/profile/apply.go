package profile

import (
	"path/filepath"
	"time"
)

// Selection is the part of the selection engine profiles need.
type Selection interface {
	Root() string
	CheckedRelative() []string
	UncheckAll()
	SetChecked(path string, value bool, fire bool)
	Render()
}

// Capture snapshots the current selection under name.
func Capture(name string, sel Selection) (Profile, error) {
	return normalize(Profile{Name: name, Paths: sel.CheckedRelative(), CreatedAt: time.Now()})
}

// Apply replaces the selection with p's paths and renders once.
// Paths that no longer exist are written anyway; they are simply never shown.
func Apply(sel Selection, p Profile) {
	sel.UncheckAll()
	root := sel.Root()
	for _, rel := range p.Paths {
		sel.SetChecked(filepath.Join(root, filepath.FromSlash(rel)), true, false)
	}
	sel.Render()
}
