// Package config loads selectree settings.
//
// Lookup order: an explicit --config path, then .selectree.yaml in the tree
// root, then $XDG_CONFIG_HOME/selectree/config.yaml. A missing file yields
// the defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName         = "selectree"
	ProjectFileName = ".selectree.yaml"
)

// ProfilesConfig selects the profile store.
type ProfilesConfig struct {
	Backend string `yaml:"backend,omitempty"` // json or sqlite
	Path    string `yaml:"path,omitempty"`
}

// ToolConfig is the external command the run command hands files to.
// An empty command selects the built-in combiner.
type ToolConfig struct {
	Command string        `yaml:"command,omitempty"`
	Args    []string      `yaml:"args,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	MaxFileSize    int64          `yaml:"max_file_size,omitempty"`
	CustomPatterns []string       `yaml:"custom_patterns,omitempty"`
	GlobalIgnore   string         `yaml:"global_ignore,omitempty"`
	CacheExpiry    time.Duration  `yaml:"cache_expiry,omitempty"`
	Profiles       ProfilesConfig `yaml:"profiles,omitempty"`
	Tool           ToolConfig     `yaml:"tool,omitempty"`
	Output         string         `yaml:"output,omitempty"`
	Workers        int            `yaml:"workers,omitempty"`
	Watch          bool           `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with defaults filled in.
func DefaultConfig() Config {
	return Config{
		MaxFileSize: 50_000_000,
		CacheExpiry: 60 * time.Second,
		Profiles:    ProfilesConfig{Backend: "json"},
		Tool:        ToolConfig{Timeout: 120 * time.Second},
		Output:      "combined.txt",
		Watch:       true,
	}
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the XDG data directory.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// Resolve picks the config file for root. explicit wins when set and must exist.
func Resolve(root, explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	if root != "" {
		p := filepath.Join(root, ProjectFileName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	if dir := ConfigDir(); dir != "" {
		return filepath.Join(dir, "config.yaml"), nil
	}
	return "", nil
}

// Load resolves and reads the config for root.
func Load(root, explicit string) (Config, error) {
	path, err := Resolve(root, explicit)
	if err != nil {
		return DefaultConfig(), err
	}
	if path == "" {
		return DefaultConfig().withDerived(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg.withDerived(), nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.GlobalIgnore = expandHome(cfg.GlobalIgnore)
	cfg.Profiles.Path = expandHome(cfg.Profiles.Path)
	return cfg.withDerived(), nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate rejects settings that cannot work.
func (c Config) Validate() error {
	switch strings.ToLower(c.Profiles.Backend) {
	case "", "json", "sqlite":
	default:
		return fmt.Errorf("unknown profiles.backend %q", c.Profiles.Backend)
	}
	if c.MaxFileSize < 0 {
		return errors.New("max_file_size must not be negative")
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	return nil
}

// withDerived fills settings whose defaults depend on other settings.
func (c Config) withDerived() Config {
	if c.Profiles.Backend == "" {
		c.Profiles.Backend = "json"
	}
	c.Profiles.Backend = strings.ToLower(c.Profiles.Backend)
	if c.Profiles.Path == "" {
		name := "profiles.json"
		if c.Profiles.Backend == "sqlite" {
			name = "profiles.db"
		}
		c.Profiles.Path = filepath.Join(DataDir(), name)
	}
	return c
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
