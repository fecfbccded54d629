package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DirName is the per-project config directory under the crate root.
	DirName = ".cratescope"

	envPrefix = "CRATESCOPE"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

// LoaderOption configures a Loader.
type LoaderOption func(*loader)

// WithConfigFile reads an explicit config file instead of searching the
// project config directory. A missing explicit file is an error.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) {
		l.configFile = path
	}
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{
		rootDir: rootDir,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CRATESCOPE_*)
// 2. Config file (.cratescope/config.yml or .cratescope/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		if _, err := os.Stat(l.configFile); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, DirName))
	}

	// CRATESCOPE_EXTRACT_WORKERS overrides extract.workers, and so on.
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKeys lists every key that can be overridden from the environment.
var envKeys = []string{
	"extract.source_dir",
	"extract.manifest",
	"extract.workers",
	"extract.ignore",
	"extract.nested_module_paths",
	"output.format",
	"output.path",
	"storage.db_path",
	"format.rustfmt_path",
	"format.edition",
	"watch.debounce_ms",
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("extract.source_dir", defaults.Extract.SourceDir)
	v.SetDefault("extract.manifest", defaults.Extract.Manifest)
	v.SetDefault("extract.workers", defaults.Extract.Workers)
	v.SetDefault("extract.ignore", defaults.Extract.Ignore)
	v.SetDefault("extract.nested_module_paths", defaults.Extract.NestedModulePaths)

	v.SetDefault("output.format", defaults.Output.Format)
	v.SetDefault("output.path", defaults.Output.Path)

	v.SetDefault("storage.db_path", defaults.Storage.DBPath)

	v.SetDefault("format.rustfmt_path", defaults.Format.RustfmtPath)
	v.SetDefault("format.edition", defaults.Format.Edition)

	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMS)
}
