package selection

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"selectree/pkg/cache"

	"go.uber.org/zap"
)

// listChildren enumerates dir. Symlinks to directories are reported as
// directories. Enumeration errors are logged and yield no children.
// Directories sort before files, then by case-insensitive name.
func (e *Engine) listChildren(dir string) []Node {
	e.ioSem <- struct{}{}
	entries, err := e.fs.ReadDir(dir)
	<-e.ioSem
	if err != nil {
		e.logger.Warn("Failed to read directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	nodes := make([]Node, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		kind := KindFile
		switch {
		case entry.IsDir():
			kind = KindDirectory
		case entry.Type()&fs.ModeSymlink != 0:
			if info, err := e.stat(path); err == nil && info.IsDir() {
				kind = KindDirectory
			}
		}
		nodes = append(nodes, Node{Kind: kind, Path: path})
	}

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].IsDir() != nodes[j].IsDir() {
			return nodes[i].IsDir()
		}
		return strings.ToLower(nodes[i].Name()) < strings.ToLower(nodes[j].Name())
	})
	return nodes
}

func (e *Engine) stat(path string) (fs.FileInfo, error) {
	e.ioSem <- struct{}{}
	defer func() { <-e.ioSem }()
	return e.fs.Stat(path)
}

// resolve returns the symlink-free path of p, or p itself when it cannot be resolved.
func (e *Engine) resolve(p string) string {
	e.ioSem <- struct{}{}
	defer func() { <-e.ioSem }()
	real, err := e.fs.EvalSymlinks(p)
	if err != nil {
		return p
	}
	return real
}

// validate returns the memoized eligibility verdict for n.
func (e *Engine) validate(n Node) cache.Validation {
	if v, ok := e.validation.Get(n.Path); ok {
		return v
	}

	v := cache.Validation{
		Excluded: e.matcher.IsExcluded(e.rel(n.Path)),
		SizeOK:   true,
	}
	if n.Kind == KindFile && !v.Excluded {
		e.ioSem <- struct{}{}
		v.SizeOK = e.matcher.IsWithinSizeLimit(n.Path)
		<-e.ioSem
	}
	if !v.SizeOK {
		e.logger.Debug("File exceeds size limit or cannot be stat'ed", zap.String("file", n.Path), zap.Int64("maxBytes", e.matcher.MaxFileSize()))
	}

	e.validation.Set(n.Path, v)
	return v
}

// eligibleChildren lists dir and keeps only eligible entries.
func (e *Engine) eligibleChildren(dir string) []Node {
	all := e.listChildren(dir)
	out := all[:0]
	for _, child := range all {
		if e.validate(child).Eligible() {
			out = append(out, child)
		}
	}
	return out
}

// kindOf stats path to build a Node. Missing paths are reported as files.
func (e *Engine) kindOf(path string) Node {
	if info, err := e.stat(path); err == nil && info.IsDir() {
		return Directory(path)
	}
	return File(path)
}
