package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"selectree/pkg/tui"
	"selectree/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var selectFlags struct {
	profile string
	noWatch bool
}

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Pick files interactively",
	Long: `Open the tree view. Confirm with 'c' to print the selected files, one per
line, relative to the root.`,
	Args: cobra.NoArgs,
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().StringVarP(&selectFlags.profile, "profile", "p", "", "start from a saved profile")
	selectCmd.Flags().BoolVar(&selectFlags.noWatch, "no-watch", false, "do not watch the file system for changes")
	RootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stderr.Fd())) {
		return errors.New("select needs an interactive terminal; use 'selectree run' in scripts")
	}
	logger := state.logger

	engine, err := state.newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	if selectFlags.profile != "" {
		if err := state.loadProfileInto(engine, selectFlags.profile); err != nil {
			return err
		}
	}

	if state.cfg.Watch && !selectFlags.noWatch {
		w := watcher.New(engine, watcher.WithLogger(logger))
		if err := w.Start(contextOf(cmd)); err != nil {
			logger.Warn("File watching unavailable", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	store, err := state.openProfiles()
	if err != nil {
		logger.Warn("Profile store unavailable", zap.Error(err))
	} else {
		defer store.Close()
	}

	// The view draws on stderr so stdout stays clean for the file list.
	program := tea.NewProgram(tui.New(engine, store, logger), tea.WithAltScreen(), tea.WithOutput(os.Stderr), tea.WithContext(contextOf(cmd)))
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("tree view: %w", err)
	}

	if m, ok := final.(tui.Model); ok && m.Confirmed() {
		for _, f := range engine.CheckedFiles() {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
