// Package runner hands a file selection to an external command.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FilesPlaceholder in an argument expands to the selected files, one argument each.
const FilesPlaceholder = "{files}"

// Defaults and exit codes.
const (
	DefaultTimeout  = 120 * time.Second
	ExitCodeTimeout = 124
)

// Command describes an external tool invocation.
type Command struct {
	Path    string
	Args    []string
	Dir     string
	Timeout time.Duration

	// Optional writers receiving output as it is produced, in addition to
	// the captured copy in Result.
	Stdout io.Writer
	Stderr io.Writer
}

// Result of one invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Elapsed  time.Duration
}

// ExpandArgs substitutes files for every FilesPlaceholder argument. When no
// argument is the placeholder the files are appended.
func ExpandArgs(args, files []string) []string {
	out := make([]string, 0, len(args)+len(files))
	expanded := false
	for _, a := range args {
		if a == FilesPlaceholder {
			out = append(out, files...)
			expanded = true
			continue
		}
		out = append(out, a)
	}
	if !expanded {
		out = append(out, files...)
	}
	return out
}

// Run executes cmd with files. A command that cannot be started is an error;
// a non-zero exit or a timeout is reported through Result.
func Run(ctx context.Context, cmd Command, files []string, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cmd.Path) == "" {
		return Result{}, errors.New("no command configured")
	}
	path, err := exec.LookPath(cmd.Path)
	if err != nil {
		return Result{}, fmt.Errorf("command %q not found: %w", cmd.Path, err)
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := ExpandArgs(cmd.Args, files)
	c := exec.CommandContext(ctx, path, args...)
	if strings.TrimSpace(cmd.Dir) != "" {
		c.Dir = cmd.Dir
	}

	var outBuf, errBuf bytes.Buffer
	c.Stdout = teeTo(&outBuf, cmd.Stdout)
	c.Stderr = teeTo(&errBuf, cmd.Stderr)

	logger.Info("Running tool", zap.String("command", path), zap.Int("files", len(files)), zap.Duration("timeout", timeout))
	start := time.Now()
	if err := c.Start(); err != nil {
		return Result{}, fmt.Errorf("failed to start %s: %w", path, err)
	}
	waitErr := c.Wait()

	res := Result{
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
		Elapsed:  time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case res.TimedOut:
		res.ExitCode = ExitCodeTimeout
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case waitErr != nil:
		res.ExitCode = 1
	}

	logger.Info("Tool finished",
		zap.Int("exitCode", res.ExitCode),
		zap.Bool("timedOut", res.TimedOut),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func teeTo(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}
