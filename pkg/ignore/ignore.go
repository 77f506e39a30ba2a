package ignore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// IgnorePattern is one compiled glob and where it came from.
type IgnorePattern struct {
	Pattern *regexp.Regexp // Compiled, fully anchored expression.
	Line    string         // Original pattern text.
	Source  string         // "default", "custom" or the ignore file path.
	LineNo  int            // 1-based line in Source.
}

// Rules is an ordered union of exclusion patterns. A path is excluded when any
// pattern matches; there is no negation.
type Rules struct {
	patterns []*IgnorePattern
	logger   *zap.Logger
}

// NewRules returns an empty rule set.
func NewRules(logger *zap.Logger) *Rules {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rules{logger: logger}
}

// CompileIgnoreLines compiles lines from source and appends them.
// Blank lines, comments and invalid patterns are skipped.
func (r *Rules) CompileIgnoreLines(source string, lines ...string) int {
	added := 0
	for i, line := range lines {
		glob, ok := cleanPatternLine(line)
		if !ok {
			continue
		}
		re, err := regexp.Compile(globToRegex(glob))
		if err != nil {
			r.logger.Warn("Invalid ignore pattern",
				zap.String("source", source),
				zap.Int("lineNo", i+1),
				zap.String("pattern", line),
				zap.Error(err))
			continue
		}
		r.patterns = append(r.patterns, &IgnorePattern{
			Pattern: re,
			Line:    glob,
			Source:  source,
			LineNo:  i + 1,
		})
		added++
	}
	return added
}

// CompileIgnoreFile reads an ignore file and appends its patterns. A missing
// file is not an error.
func (r *Rules) CompileIgnoreFile(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("Ignore file does not exist and will be skipped", zap.String("filePath", path))
			return 0, nil
		}
		return 0, err
	}

	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
	added := r.CompileIgnoreLines(path, lines...)
	r.logger.Debug("Compiled ignore patterns from file",
		zap.String("filePath", path),
		zap.Int("lineCount", len(lines)),
		zap.Int("patternCount", added))
	return added, nil
}

// MatchesPath reports whether a root-relative path is excluded.
func (r *Rules) MatchesPath(rel string) bool {
	return r.MatchingPattern(rel) != nil
}

// MatchingPattern returns the first pattern that excludes rel, or nil.
func (r *Rules) MatchingPattern(rel string) *IgnorePattern {
	normalized := NormalizePath(rel)
	if normalized == "" {
		return nil
	}
	for _, p := range r.patterns {
		if p.Pattern.MatchString(normalized) {
			return p
		}
	}
	return nil
}

// Len returns the number of compiled patterns.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.patterns)
}

// Patterns returns the compiled patterns in evaluation order.
func (r *Rules) Patterns() []*IgnorePattern {
	out := make([]*IgnorePattern, len(r.patterns))
	copy(out, r.patterns)
	return out
}

// NormalizePath converts separators to '/' and strips "./" and trailing slashes.
// The root itself normalizes to "".
func NormalizePath(path string) string {
	p := filepath.ToSlash(path)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimRight(p, "/")
	if p == "." {
		return ""
	}
	return p
}
