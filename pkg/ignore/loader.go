package ignore

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Ignore file names and the environment variable naming a global tool ignore file.
const (
	VCSIgnoreFile   = ".gitignore"
	ToolIgnoreFile  = ".combineignore"
	GlobalIgnoreEnv = "COMBINEIGNORE_GLOBAL"
)

// Config is what the engine needs from the ignore-rule sources.
type Config struct {
	Rules       *Rules
	MaxFileSize int64
}

// Loader gathers ignore rules for a tree root.
type Loader struct {
	Root           string   // Tree root; ignore files are searched from here upward.
	CustomPatterns []string // User-configured globs.
	MaxFileSize    int64    // Byte limit; <= 0 selects DefaultMaxFileSize.
	GlobalIgnore   string   // Optional extra tool ignore file; falls back to $COMBINEIGNORE_GLOBAL.
	Logger         *zap.Logger
}

// LoadConfig assembles defaults, the nearest VCS ignore file, every tool
// ignore file from the file system root down to Root, and custom globs.
// Unreadable sources are logged and skipped; the result is always usable.
func (l Loader) LoadConfig() Config {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rules := NewRules(logger)
	rules.CompileIgnoreLines("default", DefaultPatterns...)

	root, err := filepath.Abs(l.Root)
	if err != nil {
		logger.Warn("Failed to resolve root for ignore files, using defaults", zap.String("root", l.Root), zap.Error(err))
		return l.config(rules)
	}

	if vcs := findNearest(root, VCSIgnoreFile); vcs != "" {
		l.compile(rules, vcs, logger)
	}

	global := l.GlobalIgnore
	if global == "" {
		global = os.Getenv(GlobalIgnoreEnv)
	}
	if global != "" {
		if abs, err := filepath.Abs(global); err == nil {
			l.compile(rules, abs, logger)
		}
	}

	for _, file := range findAll(root, ToolIgnoreFile) {
		l.compile(rules, file, logger)
	}

	if len(l.CustomPatterns) > 0 {
		n := rules.CompileIgnoreLines("custom", l.CustomPatterns...)
		logger.Debug("Added custom ignore patterns", zap.Int("count", n))
	}

	logger.Debug("Finished loading ignore rules", zap.String("root", root), zap.Int("totalPatterns", rules.Len()))
	return l.config(rules)
}

func (l Loader) config(rules *Rules) Config {
	max := l.MaxFileSize
	if max <= 0 {
		max = DefaultMaxFileSize
	}
	return Config{Rules: rules, MaxFileSize: max}
}

func (l Loader) compile(rules *Rules, path string, logger *zap.Logger) {
	n, err := rules.CompileIgnoreFile(path)
	if err != nil {
		logger.Warn("Failed to load ignore file", zap.String("file", path), zap.Error(err))
		return
	}
	if n > 0 {
		logger.Debug("Loaded ignore file", zap.String("file", path), zap.Int("patterns", n))
	}
}

// findNearest returns the first file named name found walking up from dir.
func findNearest(dir, name string) string {
	for current := dir; ; {
		candidate := filepath.Join(current, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// findAll returns every file named name between the file system root and dir,
// root-most first.
func findAll(dir, name string) []string {
	var files []string
	for current := dir; ; {
		candidate := filepath.Join(current, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			files = append([]string{candidate}, files...)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return files
		}
		current = parent
	}
}
