// Package profile persists named selections and re-applies them to an engine.
package profile

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("profile not found")
	ErrExists      = errors.New("profile already exists")
	ErrInvalidName = errors.New("invalid profile name")
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Profile is a named set of root-relative, slash-separated paths.
type Profile struct {
	Name      string    `json:"name"`
	Paths     []string  `json:"paths"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps profiles by name. Save replaces an existing profile of the same name.
type Store interface {
	Save(p Profile) error
	Load(name string) (Profile, error)
	Delete(name string) error
	Rename(oldName, newName string) error
	List() ([]Profile, error)
	Close() error
}

// Open returns the store for backend at path.
func Open(backend, path string, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendJSON:
		return NewFileStore(path, logger), nil
	case BackendSQLite:
		s, err := NewSQLiteStore(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown profile backend %q", backend)
	}
}

// normalizeName trims name and rejects empty results.
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

// normalize prepares p for storage: trimmed name, cleaned, de-duplicated and
// sorted paths, and a creation time.
func normalize(p Profile) (Profile, error) {
	name, err := normalizeName(p.Name)
	if err != nil {
		return Profile{}, err
	}

	seen := make(map[string]bool, len(p.Paths))
	paths := make([]string, 0, len(p.Paths))
	for _, raw := range p.Paths {
		clean := filepath.ToSlash(filepath.Clean(strings.TrimSpace(raw)))
		if clean == "." || clean == "" || seen[clean] {
			continue
		}
		seen[clean] = true
		paths = append(paths, clean)
	}
	sort.Strings(paths)

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	return Profile{Name: name, Paths: paths, CreatedAt: p.CreatedAt.UTC().Truncate(time.Second)}, nil
}
