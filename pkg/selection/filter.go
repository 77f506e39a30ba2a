package selection

import (
	"path"
	"regexp"
	"strings"
)

// Query is a compiled search filter. '*' matches any run of characters and
// every other character is literal. Matching is case-insensitive.
type Query struct {
	raw     string
	re      *regexp.Regexp
	usePath bool
}

// CompileQuery compiles raw. An empty or blank query returns nil.
// A query containing '*' must match the whole name; otherwise it matches
// anywhere inside it. A query containing '/' is tested against the
// root-relative path, otherwise against the base name.
func CompileQuery(raw string) *Query {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	parts := strings.Split(trimmed, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	expr := strings.Join(parts, ".*")
	if strings.Contains(trimmed, "*") {
		expr = "^" + expr + "$"
	}

	return &Query{
		raw:     trimmed,
		re:      regexp.MustCompile("(?i)" + expr),
		usePath: strings.Contains(trimmed, "/"),
	}
}

// String returns the query text.
func (q *Query) String() string {
	if q == nil {
		return ""
	}
	return q.raw
}

// Match tests a root-relative, slash-separated path.
func (q *Query) Match(rel string) bool {
	if q == nil {
		return true
	}
	target := rel
	if !q.usePath {
		target = path.Base(rel)
	}
	return q.re.MatchString(target)
}
