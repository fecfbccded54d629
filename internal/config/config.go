// Package config loads cratescope settings.
//
// Settings come from three layers (highest priority first):
//  1. Environment variables (CRATESCOPE_*, dots replaced by underscores)
//  2. Project config file (.cratescope/config.yml or .cratescope/config.yaml)
//  3. Built-in defaults
package config

import "time"

// Config represents the complete cratescope configuration.
type Config struct {
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Format  FormatConfig  `yaml:"format" mapstructure:"format"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
}

// ExtractConfig controls how a crate tree is scanned.
type ExtractConfig struct {
	// SourceDir is scanned when present under the crate root.
	SourceDir string   `yaml:"source_dir" mapstructure:"source_dir" validate:"required"`
	Manifest  string   `yaml:"manifest" mapstructure:"manifest" validate:"required"`
	Workers   int      `yaml:"workers" mapstructure:"workers" validate:"min=1,max=256"`
	Ignore    []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns relative to the scanned dir

	// NestedModulePaths attributes items in inline mod blocks to their own module path.
	NestedModulePaths bool `yaml:"nested_module_paths" mapstructure:"nested_module_paths"`
}

// OutputConfig controls how the model is written.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json yaml"`
	Path   string `yaml:"path" mapstructure:"path"` // empty means stdout
}

// StorageConfig controls snapshot persistence.
type StorageConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"` // empty disables persistence
}

// FormatConfig configures the rustfmt passthrough.
type FormatConfig struct {
	RustfmtPath string `yaml:"rustfmt_path" mapstructure:"rustfmt_path" validate:"required"`
	Edition     string `yaml:"edition" mapstructure:"edition" validate:"oneof=2015 2018 2021 2024"`
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms" validate:"min=0"`
}

// Debounce returns the debounce window as a duration.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Extract: ExtractConfig{
			SourceDir: "src",
			Manifest:  "Cargo.toml",
			Workers:   4,
			Ignore: []string{
				"target/**",
				".git/**",
			},
		},
		Output: OutputConfig{
			Format: "json",
		},
		Format: FormatConfig{
			RustfmtPath: "rustfmt",
			Edition:     "2021",
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
	}
}
