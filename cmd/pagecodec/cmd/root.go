/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacques-n/parquet-mr/pkg/config"
	"github.com/jacques-n/parquet-mr/pkg/di"
)

var container *di.Container

// SetContainer injects the dependency container used by all commands
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pagecodec",
	Short: "pagecodec - Parquet page value codecs",
	Long: `pagecodec encodes and decodes the values of Parquet data pages.

It supports the PLAIN, dictionary, RLE/bit-packing hybrid and delta
encodings, keeps encoded pages in a local page store and can serve the
codecs over a REST API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return fmt.Errorf("dependency container not initialized")
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := config.NewLogger(cfg.Logging, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		container.SetConfig(cfg)
		container.SetLogger(logger)
		return nil
	},
}

// loadConfig reads the config file if there is one and applies the global
// flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath := configPathFlag(cmd)

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		var err error
		if cfg, err = config.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func configPathFlag(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	return config.GetDefaultConfigPath()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Data directory for the page store")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}
