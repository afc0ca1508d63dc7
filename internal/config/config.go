package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultOutput is the dump file written when no output is configured
const DefaultOutput = "project_files_dump.txt"

// Compression codecs accepted by the compress setting
const (
	CompressNone = "none"
	CompressZstd = "zstd"
)

// ConfigFileNames are looked up, in order, by LoadConfigFromDir
var ConfigFileNames = []string{".textdump.yaml", ".textdump.yml", ".textdump.toml"}

// defaultExtensions is the allow-set of text formats included in a dump
var defaultExtensions = []string{
	".txt", ".md", ".yaml", ".yml", ".json", ".sh", ".py", ".go", ".js", ".ts",
	".html", ".css", ".Dockerfile", ".conf", ".ini", ".xml", ".csv", ".tsv", ".sql",
}

// defaultNames are file names included regardless of extension
var defaultNames = []string{"dockerfile"}

// DefaultExtensions returns a copy of the built-in extension allow-set
func DefaultExtensions() []string {
	return append([]string(nil), defaultExtensions...)
}

// DefaultNames returns a copy of the built-in file name allow-set
func DefaultNames() []string {
	return append([]string(nil), defaultNames...)
}

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every run in the history database
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// DBPath is the path to the history database (empty = $TEXTDUMP_HOME/history.db)
	DBPath string `yaml:"db_path" toml:"db_path"`
}

// Config represents textdump configuration options
type Config struct {
	// Root is the directory the walk starts from
	Root string `yaml:"root" toml:"root"`

	// Output is the dump file; relative paths are resolved against Root
	Output string `yaml:"output" toml:"output"`

	// Extensions is the allow-set of file extensions, matched against the lower-cased file extension
	Extensions []string `yaml:"extensions" toml:"extensions"`

	// Names are file names included regardless of extension, matched against the lower-cased file name
	Names []string `yaml:"names" toml:"names"`

	// ExcludeDirs are directory names never descended (empty = walk everything)
	ExcludeDirs []string `yaml:"exclude_dirs" toml:"exclude_dirs"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// LogDir enables per-run log files in this directory when set
	LogDir string `yaml:"log_dir" toml:"log_dir"`

	// Compress selects the output codec (none, zstd)
	Compress string `yaml:"compress" toml:"compress"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history" toml:"history"`
}

// DefaultConfig returns the configuration that reproduces a plain run:
// walk ".", dump the built-in allow-set into project_files_dump.txt.
func DefaultConfig() *Config {
	return &Config{
		Root:        ".",
		Output:      DefaultOutput,
		Extensions:  DefaultExtensions(),
		Names:       DefaultNames(),
		ExcludeDirs: nil,
		LogLevel:    "info",
		LogDir:      "",
		Compress:    CompressNone,
		History: HistoryConfig{
			Enabled: false,
			DBPath:  "",
		},
	}
}

// fileConfig mirrors Config with pointer fields so keys present in the file
// can be told apart from keys that were left out.
type fileConfig struct {
	Root        *string            `yaml:"root" toml:"root"`
	Output      *string            `yaml:"output" toml:"output"`
	Extensions  *[]string          `yaml:"extensions" toml:"extensions"`
	Names       *[]string          `yaml:"names" toml:"names"`
	ExcludeDirs *[]string          `yaml:"exclude_dirs" toml:"exclude_dirs"`
	LogLevel    *string            `yaml:"log_level" toml:"log_level"`
	LogDir      *string            `yaml:"log_dir" toml:"log_dir"`
	Compress    *string            `yaml:"compress" toml:"compress"`
	History     *fileHistoryConfig `yaml:"history" toml:"history"`
}

type fileHistoryConfig struct {
	Enabled *bool   `yaml:"enabled" toml:"enabled"`
	DBPath  *string `yaml:"db_path" toml:"db_path"`
}

// LoadConfig loads configuration from the specified file path.
// The format is chosen by extension: .toml is TOML, anything else is YAML.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	fc.applyTo(cfg)
	return cfg, nil
}

// applyTo overlays every key present in the file onto cfg
func (fc *fileConfig) applyTo(cfg *Config) {
	if fc.Root != nil {
		cfg.Root = *fc.Root
	}
	if fc.Output != nil {
		cfg.Output = *fc.Output
	}
	// An explicit list replaces the built-in one, even when empty
	if fc.Extensions != nil {
		cfg.Extensions = append([]string{}, (*fc.Extensions)...)
	}
	if fc.Names != nil {
		cfg.Names = append([]string{}, (*fc.Names)...)
	}
	if fc.ExcludeDirs != nil {
		cfg.ExcludeDirs = append([]string{}, (*fc.ExcludeDirs)...)
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(*fc.LogLevel)
	}
	if fc.LogDir != nil {
		cfg.LogDir = *fc.LogDir
	}
	if fc.Compress != nil {
		cfg.Compress = strings.ToLower(*fc.Compress)
	}
	if fc.History != nil {
		if fc.History.Enabled != nil {
			cfg.History.Enabled = *fc.History.Enabled
		}
		if fc.History.DBPath != nil {
			cfg.History.DBPath = *fc.History.DBPath
		}
	}
}

// LoadConfigFromDir loads the first of .textdump.yaml, .textdump.yml or
// .textdump.toml found in dir. With none present it returns the defaults.
func LoadConfigFromDir(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		}
	}
	return DefaultConfig(), nil
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(root, output, logLevel, logDir, compress *string, history *bool) {
	if root != nil {
		c.Root = *root
	}
	if output != nil {
		c.Output = *output
	}
	if logLevel != nil {
		c.LogLevel = strings.ToLower(*logLevel)
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if compress != nil {
		c.Compress = strings.ToLower(*compress)
	}
	if history != nil {
		c.History.Enabled = *history
	}
}

// OutputPath returns the output file location, resolving relative paths against Root
func (c *Config) OutputPath() string {
	path := c.Output
	if c.Compress == CompressZstd && !strings.HasSuffix(path, ".zst") {
		path += ".zst"
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Root, path)
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("root cannot be empty")
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("output cannot be empty")
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	switch c.Compress {
	case CompressNone, CompressZstd:
	default:
		return fmt.Errorf("invalid compress %q, must be one of: none, zstd", c.Compress)
	}

	if len(c.Extensions) == 0 && len(c.Names) == 0 {
		return fmt.Errorf("extensions and names cannot both be empty")
	}

	return nil
}
