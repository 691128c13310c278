/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jacques-n/parquet-mr/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the pagecodec REST API server backed by the page store.

The API key is read from the config file; run 'pagecodec init' to create
one. Prometheus metrics are served at /metrics.

Examples:
  pagecodec serve
  pagecodec serve --port 9000 --bind 0.0.0.0 --data-dir ./data`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.Config()
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.Bind, _ = cmd.Flags().GetString("bind")
		}
		if key, _ := cmd.Flags().GetString("api-key"); key != "" {
			cfg.Security.APIKey = key
		}
		if cfg.Security.APIKey == "" || cfg.Security.APIKey == "auto" {
			return fmt.Errorf("no API key configured (run 'pagecodec init' first or pass --api-key)")
		}

		st, err := container.OpenStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cmd.Printf("Starting pagecodec server on %s:%d\n", cfg.Bind, cfg.Port)
		cmd.Printf("Data directory: %s\n", cfg.DataDir)
		cmd.Printf("Metrics available at: http://%s:%d/metrics\n", cfg.Bind, cfg.Port)
		return api.StartServer(ctx, st, container.ServerConfig(), container.Logger())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().String("api-key", "", "API key for client authentication (overrides config)")
}
