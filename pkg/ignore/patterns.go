// File: pkg/ignore/patterns.go
package ignore

import (
	"regexp"
	"strings"
)

// DefaultPatterns are always excluded, before any ignore file is read.
var DefaultPatterns = []string{
	"**/.git/**",
	"**/.hg/**",
	"**/.svn/**",
	"**/node_modules/**",
	"**/bower_components/**",
	"**/dist/**",
	"**/build/**",
	"**/out/**",
	"**/coverage/**",
	"**/.next/**",
	"**/.vscode/**",
	"**/.idea/**",
	"**/__pycache__/**",
	"**/.venv/**",
	"**/.DS_Store",
	"**/*.log",
	"**/*.pyc",
	"**/*.min.js",
	"**/*.map",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
}

// globToRegex converts a glob into an anchored regular expression source.
//   - **  matches across path separators
//   - *   matches within one segment
//   - ?   matches one non-separator character
//
// Everything else is literal. A pattern with no '/' apart from a trailing one
// may match at any depth; any other pattern is matched from the root, the way
// .gitignore anchors "src/*.ts". A match on a directory covers everything
// beneath it.
func globToRegex(glob string) string {
	anchored := strings.Contains(strings.TrimSuffix(glob, "/"), "/")
	glob = strings.TrimPrefix(glob, "/")

	var b strings.Builder
	b.WriteString("^")
	if !anchored {
		b.WriteString("(|.*/)")
	}

	for i := 0; i < len(glob); {
		rest := glob[i:]
		switch {
		case i == 0 && strings.HasPrefix(rest, "**/"):
			b.WriteString("(.*/)?")
			i += 3
		case strings.HasPrefix(rest, "/**/"):
			b.WriteString("(/|/.+/)")
			i += 4
		case rest == "/**":
			b.WriteString("(/.*)?")
			i += 3
		case strings.HasPrefix(rest, "**"):
			b.WriteString(".*")
			i += 2
		case rest[0] == '*':
			b.WriteString("[^/]*")
			i++
		case rest[0] == '?':
			b.WriteString("[^/]")
			i++
		default:
			b.WriteString(regexp.QuoteMeta(rest[:1]))
			i++
		}
	}

	b.WriteString("(/.*)?$")
	return b.String()
}

// cleanPatternLine trims a raw ignore line and reports whether it holds a pattern.
func cleanPatternLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}

	// No negation: a leading '!' is dropped and the rest still excludes.
	trimmed = strings.TrimPrefix(trimmed, "!")

	if strings.HasPrefix(trimmed, `\#`) || strings.HasPrefix(trimmed, `\!`) {
		trimmed = trimmed[1:]
	}

	trimmed = strings.TrimRight(trimmed, "/")
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}
