package selection

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"selectree/pkg/fsys"
	"selectree/pkg/ignore"

	"go.uber.org/zap/zaptest"
)

type staticLoader struct {
	patterns []string
	max      int64
}

func (l staticLoader) LoadConfig() ignore.Config {
	r := ignore.NewRules(nil)
	r.CompileIgnoreLines("test", l.patterns...)
	return ignore.Config{Rules: r, MaxFileSize: l.max}
}

// failingFS fails ReadDir for the listed directories.
type failingFS struct {
	fsys.OS
	fail map[string]bool
}

func (f failingFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if f.fail[filepath.Clean(name)] {
		return nil, errors.New("permission denied")
	}
	return f.OS.ReadDir(name)
}

// buildTree creates files (slash-separated, trailing '/' for empty dirs)
// under a fresh temp root.
func buildTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(p, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newEngine(t *testing.T, root string, loader ConfigLoader, opts ...func(*Options)) *Engine {
	t.Helper()
	o := Options{
		Loader:   loader,
		Debounce: time.Millisecond,
		Logger:   zaptest.NewLogger(t),
	}
	for _, fn := range opts {
		fn(&o)
	}
	e, err := New(root, o)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func p(root string, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
