package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/patchkit/pkg/patchkit/config"
	"github.com/jamesainslie/patchkit/pkg/patchkit/fingerprint"
	"github.com/jamesainslie/patchkit/pkg/patchkit/history"
	"github.com/jamesainslie/patchkit/pkg/patchkit/logging"
	"github.com/jamesainslie/patchkit/pkg/patchkit/output"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "patchkit",
		Short: "Package file-tree patches and reconcile trees against manifests",
		Long: `Patchkit diffs two dated manifests of a directory tree, stages the
files that changed into a distributable package, and tracks deletions in a
persistent ledger. On the consuming side it reconciles a live tree against an
authoritative manifest, deleting files the manifest does not account for.

Examples:
  patchkit generate -w ./build --compress   # Stage and package a patch
  patchkit reconcile full-scan ./install    # Delete unaccounted files
  patchkit history                          # View recent runs
  patchkit config show                      # Show configuration`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/patchkit/config.yaml)")
	rootCmd.PersistentFlags().StringP("work-dir", "w", "", "parent directory for staging, archive, and ledger")
	rootCmd.PersistentFlags().String("algorithm", "", "fingerprint algorithm (sha256, xxhash64)")
	rootCmd.PersistentFlags().StringP("format", "f", "pretty", "output format (pretty, plain, json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().Bool("no-history", false, "don't record this run in the history store")

	// Bind flags to viper
	_ = viper.BindPFlag("work_dir", rootCmd.PersistentFlags().Lookup("work-dir"))
	_ = viper.BindPFlag("fingerprint.algorithm", rootCmd.PersistentFlags().Lookup("algorithm"))
	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("no_history", rootCmd.PersistentFlags().Lookup("no-history"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "patchkit"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "patchkit"))
		}
	}

	viper.SetEnvPrefix("PATCHKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the injected logger for the named component from the
// effective configuration. The returned closer releases the log file, if any.
func newLogger(component string) (*log.Logger, io.Closer, error) {
	level := viper.GetString("logging.level")
	if viper.GetBool("verbose") {
		level = "debug"
	}
	return logging.New(component, logging.Config{
		Level: level,
		Path:  viper.GetString("logging.path"),
	})
}

// newFingerprint builds the configured fingerprint service.
func newFingerprint() (fingerprint.Service, error) {
	return fingerprint.New(viper.GetString("fingerprint.algorithm"))
}

// printResult renders a run result with the selected formatter.
func printResult(r *output.Result) error {
	if viper.GetBool("quiet") {
		return nil
	}

	formatter, err := output.Get(viper.GetString("format"))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		return err
	}
	fmt.Print(buf.String())
	return nil
}

// recordRun appends a run record to the history store unless history is
// disabled. History failures are reported but never fail the run.
func recordRun(rec history.Record) {
	if viper.GetBool("no_history") || !viper.GetBool("history.enabled") {
		return
	}

	store, err := history.Open(viper.GetString("history.path"))
	if err != nil {
		printError("Failed to open history store: %v", err)
		return
	}
	defer func() { _ = store.Close() }()

	if _, err := store.Append(rec); err != nil {
		printError("Failed to record run: %v", err)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
