// Command scholar-impact annotates Google Scholar profile pages with journal
// impact factors and serves the same lookup over HTTP and MCP.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	cfgPath string
	cfg     config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "scholar-impact",
	Short:         "Journal impact factors for Google Scholar profiles",
	Long:          "Annotates each publication of a Google Scholar profile page with the impact factor of its venue and adds a total for the author.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path := cfgPath
		if !cmd.Flags().Changed("config") {
			if env := os.Getenv("SCHOLAR_IMPACT_CONFIG"); env != "" {
				path = env
			}
		}
		c, err := loadConfig(path)
		if err != nil {
			return err
		}
		cfg = c
		logger = newLogger(cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to config file")

	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
