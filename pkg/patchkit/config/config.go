// Package config loads patchkit configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

// LedgerConfig configures the deletion ledger.
type LedgerConfig struct {
	// Dedupe keeps only the newest ledger record per path. Off by default:
	// repeated packaging runs over the same snapshot pair accumulate
	// duplicate deletion records.
	Dedupe bool `mapstructure:"dedupe"`
}

// HistoryConfig configures the run-history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config represents the application configuration.
type Config struct {
	WorkDir          string `mapstructure:"work_dir"`
	SourceRoot       string `mapstructure:"source_root"`
	CurrentManifest  string `mapstructure:"current_manifest"`
	PreviousManifest string `mapstructure:"previous_manifest"`
	Mode             string `mapstructure:"mode"`
	Compress         bool   `mapstructure:"compress"`
	Fingerprint      struct {
		Algorithm string `mapstructure:"algorithm"`
	} `mapstructure:"fingerprint"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/patchkit/config.yaml
//   - $HOME/.config/patchkit/config.yaml
//
// Environment variables are prefixed with PATCHKIT_ (e.g., PATCHKIT_MODE).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "patchkit"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "patchkit"))

	v.SetEnvPrefix("PATCHKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("work_dir", "")
	v.SetDefault("source_root", "")
	v.SetDefault("current_manifest", DefaultCurrentManifest)
	v.SetDefault("previous_manifest", DefaultPreviousManifest)
	v.SetDefault("mode", DefaultMode)
	v.SetDefault("compress", false)
	v.SetDefault("fingerprint.algorithm", DefaultAlgorithm)
	v.SetDefault("ledger.dedupe", false)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", DefaultHistoryPath())
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "")
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "patchkit"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "patchkit"), nil
}

// DataDir returns $XDG_DATA_HOME/patchkit/ for the history store.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "patchkit")
}

// StateDir returns $XDG_STATE_HOME/patchkit/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "patchkit")
}

// DefaultHistoryPath returns the default run-history store path.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "patchkit.log")
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Patchkit Configuration

# Parent directory for staging, the package archive, and the deletion ledger
work_dir: ""

# Directory holding the current tree's files
source_root: ""

# Manifest names, relative to work_dir unless absolute
current_manifest: %s
previous_manifest: %s

# Reconciliation mode: disabled, ledger-only, full-scan
mode: %s

# Archive the staging tree into a single package file
compress: false

# Content fingerprinting
fingerprint:
  # sha256 or xxhash64
  algorithm: %s

# Deletion ledger behavior
ledger:
  # Keep only the newest record per path instead of accumulating duplicates
  dedupe: false

# Run history
history:
  enabled: true
  path: %s

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: %s
  # Log file path (empty logs to stderr)
  path: ""
`, DefaultCurrentManifest, DefaultPreviousManifest, DefaultMode,
		DefaultAlgorithm, DefaultHistoryPath(), DefaultLogLevel)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}
