/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jacques-n/parquet-mr/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration with a generated API key",
	Long: `Create the pagecodec configuration file with a securely generated API
key and the default codec settings.

This command will:
- Write the config file (default: OS-specific location)
- Generate the API key used by 'pagecodec serve'
- Record the data directory of the page store

Examples:
  pagecodec init
  pagecodec init --config ./pagecodec.yaml --data-dir ./data --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := configPathFlag(cmd)
		force, _ := cmd.Flags().GetBool("force")

		if config.ConfigExists(configPath) && !force {
			cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", configPath)
			return nil
		}

		cfg, err := config.BootstrapConfig(configPath, container.Config().DataDir)
		if err != nil {
			return err
		}
		container.SetConfig(cfg)

		cmd.Printf("✅ Configuration created at %s\n", configPath)
		cmd.Printf("Data directory: %s\n", cfg.DataDir)
		if printKey, _ := cmd.Flags().GetBool("print-key"); printKey {
			cmd.Printf("API key: %s\n", cfg.Security.APIKey)
		}
		cmd.Printf("\nYou can now start the server with:\n")
		cmd.Printf("  pagecodec serve --config %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
	initCmd.Flags().Bool("print-key", false, "Print the generated API key")
}
