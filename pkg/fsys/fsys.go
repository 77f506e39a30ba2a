// Package fsys is the narrow file system surface the selection engine reads through.
package fsys

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem lists directories and stats paths. Implementations must be safe
// for concurrent use.
type FileSystem interface {
	ReadDir(name string) ([]fs.DirEntry, error)
	Stat(name string) (fs.FileInfo, error)
	EvalSymlinks(path string) (string, error)
}

// OS reads the real file system.
type OS struct{}

func (OS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }

func (OS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (OS) EvalSymlinks(path string) (string, error) { return filepath.EvalSymlinks(path) }
