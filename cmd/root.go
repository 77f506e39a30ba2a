package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"selectree/pkg/config"
	"selectree/pkg/ignore"
	"selectree/pkg/logging"
	"selectree/pkg/profile"
	"selectree/pkg/selection"
	"selectree/pkg/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ExitError carries a process exit code out of a command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// app holds state shared by every command once flags are parsed.
type app struct {
	rootFlag   string
	configFlag string
	debug      bool
	logFile    string

	root   string
	cfg    config.Config
	logger *zap.Logger
}

var state = &app{logger: zap.NewNop()}

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "selectree",
	Short: "Pick files from a directory tree and hand them to a tool",
	Long: `selectree shows a directory tree with tri-state checkboxes, honours .gitignore
and .combineignore rules, keeps named selection profiles, and feeds the selected
files to the built-in combiner or to any external command.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: state.setup,
}

func init() {
	f := RootCmd.PersistentFlags()
	f.StringVarP(&state.rootFlag, "root", "r", ".", "tree root directory")
	f.StringVar(&state.configFlag, "config", "", "config file (default .selectree.yaml in the root, then the user config)")
	f.BoolVar(&state.debug, "debug", false, "enable debug logging")
	f.StringVar(&state.logFile, "log-file", "", "write logs to this file")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

// Logger returns the logger configured for the running command.
func Logger() *zap.Logger {
	return state.logger
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	root, err := filepath.Abs(a.rootFlag)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", root)
	}
	a.root = root

	// The interactive view owns the terminal; log only when asked to.
	interactive := cmd.Name() == selectCmd.Name()
	a.logger, err = logging.Setup(logging.Options{
		Debug:      a.debug,
		AppName:    "selectree",
		AppVersion: version.Get().Version,
		File:       a.logFile,
		Quiet:      interactive,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg, err = config.Load(root, a.configFlag)
	if err != nil {
		return err
	}
	a.logger.Debug("Loaded configuration", zap.String("root", root), zap.Any("config", a.cfg))
	return nil
}

func (a *app) newEngine() (*selection.Engine, error) {
	loader := ignore.Loader{
		Root:           a.root,
		CustomPatterns: a.cfg.CustomPatterns,
		MaxFileSize:    a.cfg.MaxFileSize,
		GlobalIgnore:   a.cfg.GlobalIgnore,
		Logger:         a.logger,
	}
	return selection.New(a.root, selection.Options{
		Loader: loader,
		Expiry: a.cfg.CacheExpiry,
		Logger: a.logger,
	})
}

func (a *app) openProfiles() (profile.Store, error) {
	return profile.Open(a.cfg.Profiles.Backend, a.cfg.Profiles.Path, a.logger)
}

// loadProfileInto applies the named profile to e.
func (a *app) loadProfileInto(e *selection.Engine, name string) error {
	store, err := a.openProfiles()
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := store.Load(name)
	if errors.Is(err, profile.ErrNotFound) {
		return fmt.Errorf("no profile named %q", name)
	}
	if err != nil {
		return err
	}
	profile.Apply(e, p)
	a.logger.Info("Applied profile", zap.String("name", p.Name), zap.Int("paths", len(p.Paths)))
	return nil
}
