package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"selectree/pkg/combine"
	"selectree/pkg/runner"
	"selectree/pkg/selection"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runOptions struct {
	profile   string
	query     string
	tool      string
	output    string
	timeout   time.Duration
	clipboard bool
	noTree    bool
	dryRun    bool
}

var runFlags runOptions

var runCmd = &cobra.Command{
	Use:   "run [-- tool args...]",
	Short: "Select files non-interactively and hand them to a tool",
	Long: `Select files from a saved profile, a search query, or everything eligible,
then combine them into one document or pass them to an external command.

Arguments after -- are the tool's arguments; {files} expands to the selected
files, otherwise they are appended.`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.profile, "profile", "p", "", "select the files of a saved profile")
	f.StringVarP(&runFlags.query, "query", "q", "", "select files matching a search query")
	f.StringVarP(&runFlags.tool, "tool", "t", "", "external command (default from config; empty uses the built-in combiner)")
	f.StringVarP(&runFlags.output, "output", "o", "", "combined output file (default from config)")
	f.DurationVar(&runFlags.timeout, "timeout", 0, "external command timeout")
	f.BoolVar(&runFlags.clipboard, "clipboard", false, "copy the combined output to the clipboard")
	f.BoolVar(&runFlags.noTree, "no-tree", false, "omit the file tree from the combined output")
	f.BoolVar(&runFlags.dryRun, "dry-run", false, "print the selected files and stop")
	RootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := state.logger
	if runFlags.profile != "" && runFlags.query != "" {
		return errors.New("--profile and --query are mutually exclusive")
	}

	engine, err := state.newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	files, err := selectFiles(engine)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no files selected")
	}

	if runFlags.dryRun {
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	}

	tool := runFlags.tool
	if tool == "" {
		tool = state.cfg.Tool.Command
	}
	if tool != "" {
		return runTool(cmd, tool, args, files)
	}

	output := runFlags.output
	if output == "" {
		output = state.cfg.Output
	}
	if output != "" && !filepath.IsAbs(output) {
		output = filepath.Join(state.root, output)
	}

	res, err := combine.Run(combine.Options{
		Root:        state.root,
		Files:       files,
		Output:      output,
		MaxWorkers:  state.cfg.Workers,
		IncludeTree: !runFlags.noTree,
	}, logger)
	if err != nil {
		return err
	}

	if runFlags.clipboard {
		if err := clipboard.WriteAll(res.Text); err != nil {
			return fmt.Errorf("copying to clipboard: %w", err)
		}
		logger.Info("Copied combined output to clipboard", zap.Int("bytes", len(res.Text)))
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "combined %d files into %s", len(res.Files), output)
	if len(res.Binary) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), " (%d binary skipped)", len(res.Binary))
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d files could not be read: %v", len(res.Failed), res.Failed)
	}
	return nil
}

// selectFiles fills the engine's selection from the flags and returns the
// eligible files, relative to the root.
func selectFiles(engine *selection.Engine) ([]string, error) {
	switch {
	case runFlags.profile != "":
		if err := state.loadProfileInto(engine, runFlags.profile); err != nil {
			return nil, err
		}
	case runFlags.query != "":
		engine.SelectAllMatching(runFlags.query)
	default:
		engine.SelectAll()
	}
	return engine.CheckedFiles(), nil
}

func runTool(cmd *cobra.Command, tool string, args, files []string) error {
	if len(args) == 0 {
		args = state.cfg.Tool.Args
	}
	timeout := runFlags.timeout
	if timeout == 0 {
		timeout = state.cfg.Tool.Timeout
	}

	res, err := runner.Run(contextOf(cmd), runner.Command{
		Path:    tool,
		Args:    args,
		Dir:     state.root,
		Timeout: timeout,
		Stdout:  cmd.OutOrStdout(),
		Stderr:  os.Stderr,
	}, files, state.logger)
	if err != nil {
		return err
	}
	if res.TimedOut {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s timed out after %s\n", tool, timeout)
	}
	if res.ExitCode != 0 {
		return &ExitError{Code: res.ExitCode}
	}
	return nil
}
