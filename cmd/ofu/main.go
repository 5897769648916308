package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marianozunino/ofu/internal/config"
	"github.com/marianozunino/ofu/internal/logger"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "ofu",
	Short: "ofu - temporary file hosting with size-based retention",
	Long: `ofu stores uploaded files under short random names and deletes them
once they outlive a retention period that shrinks as files grow.

Quick start:
  ofu serve --config config.yaml        # Run the HTTP server
  ofu purge --config config.yaml        # Delete expired files once
  ofu retention 128                     # Show how long a 128 MiB file is kept
  ofu upload --server https://host/ a.png b.txt`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "Path to the YAML configuration file (env CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging and detailed error messages")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(retentionCmd)
	rootCmd.AddCommand(uploadCmd)
}

// loadConfig reads the configuration selected by the global flags and builds
// the matching logger.
func loadConfig() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if debug {
		cfg.Debug = true
	}

	log, err := logger.New(cfg.Debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
