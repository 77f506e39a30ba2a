// Package combine concatenates a set of selected files into one text
// document, preceded by a tree of the selection.
package combine

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Options configures one combine run.
type Options struct {
	Root        string   // Directory the file list is relative to.
	Files       []string // Root-relative, slash-separated paths to combine.
	Output      string   // Destination file; empty keeps the result in memory only.
	MaxWorkers  int      // Concurrent readers; <= 0 uses the CPU count.
	IncludeTree bool     // Prefix the output with a tree of Files.
}

// Result describes what a run produced.
type Result struct {
	Text    string   // The combined document.
	Files   []string // Files included, sorted.
	Binary  []string // Files skipped as binary.
	Failed  []string // Files that could not be read.
	Elapsed time.Duration
}

// FileContent is one processed file.
type FileContent struct {
	Path    string // Root-relative path.
	Content string // Header followed by the file body.
}

// Run combines opts.Files. A failure to read an individual file is logged and
// reported in Result.Failed; only output errors fail the run.
func Run(opts Options, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get absolute path: %w", err)
	}
	logger.Info("Starting combine", zap.String("root", root), zap.Int("files", len(opts.Files)))

	var res Result
	var regular []string
	for _, rel := range dedupe(opts.Files) {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		switch binary, err := isBinary(abs); {
		case err != nil:
			logger.Warn("Failed to inspect file", zap.String("file", abs), zap.Error(err))
			res.Failed = append(res.Failed, rel)
		case binary:
			logger.Debug("Skipping binary file", zap.String("file", abs))
			res.Binary = append(res.Binary, rel)
		default:
			regular = append(regular, rel)
		}
	}
	if len(res.Binary) > 0 {
		logger.Warn("Binary files are not included in the combined output", zap.Strings("binaryFiles", res.Binary))
	}

	contents, failed := processConcurrently(regular, root, opts.MaxWorkers, logger)
	res.Failed = append(res.Failed, failed...)
	sort.Slice(contents, func(i, j int) bool { return contents[i].Path < contents[j].Path })
	sort.Strings(res.Failed)

	var b strings.Builder
	if opts.IncludeTree {
		b.WriteString(renderTree(filepath.Base(root), pathsOf(contents)))
	}
	for _, c := range contents {
		b.WriteString(c.Content)
		res.Files = append(res.Files, c.Path)
	}
	res.Text = b.String()

	if opts.Output != "" {
		if err := writeCombinedFile(opts.Output, res.Text, logger); err != nil {
			return res, fmt.Errorf("failed to write combined file: %w", err)
		}
	}

	res.Elapsed = time.Since(start)
	logger.Info("Combine completed",
		zap.Int("totalFiles", len(res.Files)),
		zap.Int("binaryFiles", len(res.Binary)),
		zap.Int("failedFiles", len(res.Failed)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func dedupe(files []string) []string {
	seen := make(map[string]bool, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		f = normalizePath(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func pathsOf(contents []FileContent) []string {
	out := make([]string, len(contents))
	for i, c := range contents {
		out[i] = c.Path
	}
	return out
}

// normalizePath converts p to a clean slash-separated relative path.
func normalizePath(p string) string {
	p = filepath.ToSlash(filepath.Clean(strings.TrimSpace(p)))
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return p
}
