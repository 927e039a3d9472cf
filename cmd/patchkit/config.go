package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/patchkit/pkg/patchkit/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage patchkit configuration",
	Long:  `View and manage patchkit configuration settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if file := viper.ConfigFileUsed(); file != "" {
			fmt.Printf("Config file: %s\n\n", file)
		} else {
			fmt.Print("Config file: (none, using defaults)\n\n")
		}

		settings := []string{
			"work_dir",
			"source_root",
			"current_manifest",
			"previous_manifest",
			"mode",
			"compress",
			"fingerprint.algorithm",
			"ledger.dedupe",
			"history.enabled",
			"history.path",
			"logging.level",
			"logging.path",
		}
		for _, key := range settings {
			fmt.Printf("%s: %v\n", key, viper.Get(key))
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteDefault(); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}

		dir, err := config.ConfigDir()
		if err != nil {
			return err
		}
		fmt.Printf("Config file: %s\n", filepath.Join(dir, "config.yaml"))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config directory path",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.ConfigDir()
		if err != nil {
			return err
		}
		fmt.Println(dir)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
