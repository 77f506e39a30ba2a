package cache

// Validation is the memoized pattern-matcher verdict for one path.
type Validation struct {
	Excluded bool
	SizeOK   bool
}

// Eligible reports whether the path may take part in selection.
func (v Validation) Eligible() bool {
	return !v.Excluded && v.SizeOK
}

// Verdict is the aggregate selection state of a directory.
type Verdict int

const (
	None Verdict = iota
	Partial
	All
)

func (v Verdict) String() string {
	switch v {
	case Partial:
		return "partial"
	case All:
		return "all"
	default:
		return "none"
	}
}

// DirState is the memoized aggregate for one directory.
// Total counts eligible children; Checked counts those fully selected.
type DirState struct {
	Verdict Verdict
	Checked int
	Total   int
}

// ValidationCache memoizes Validation per absolute path.
type ValidationCache = TTL[Validation]

// DirectoryStateCache memoizes DirState per directory.
type DirectoryStateCache = TTL[DirState]

// NewValidationCache returns an empty validation cache.
func NewValidationCache(opts ...Option) *ValidationCache {
	return NewTTL[Validation]("validation", opts...)
}

// NewDirectoryStateCache returns an empty directory state cache.
func NewDirectoryStateCache(opts ...Option) *DirectoryStateCache {
	return NewTTL[DirState]("directory-state", opts...)
}
