package ignore

import (
	"selectree/pkg/fsys"
)

// DefaultMaxFileSize is the size limit used when none is configured.
const DefaultMaxFileSize int64 = 50_000_000

// Matcher decides exclusion and size eligibility. It holds no mutable state
// and is safe for concurrent use.
type Matcher struct {
	rules       *Rules
	maxFileSize int64
	fs          fsys.FileSystem
}

// NewMatcher builds a Matcher from a loaded Config.
func NewMatcher(cfg Config, fs fsys.FileSystem) *Matcher {
	if fs == nil {
		fs = fsys.OS{}
	}
	rules := cfg.Rules
	if rules == nil {
		rules = NewRules(nil)
	}
	max := cfg.MaxFileSize
	if max <= 0 {
		max = DefaultMaxFileSize
	}
	return &Matcher{rules: rules, maxFileSize: max, fs: fs}
}

// IsExcluded reports whether the root-relative path matches any rule.
func (m *Matcher) IsExcluded(rel string) bool {
	return m.rules.MatchesPath(rel)
}

// IsWithinSizeLimit reports whether the file at abs is small enough.
// Directories always pass; a path that cannot be stat'ed fails.
func (m *Matcher) IsWithinSizeLimit(abs string) bool {
	info, err := m.fs.Stat(abs)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return true
	}
	return info.Size() <= m.maxFileSize
}

// MaxFileSize returns the configured byte limit.
func (m *Matcher) MaxFileSize() int64 {
	return m.maxFileSize
}

// Rules exposes the compiled rule set.
func (m *Matcher) Rules() *Rules {
	return m.rules
}
