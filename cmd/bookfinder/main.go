// Package main is the entry point for the bookfinder service and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bookfinder/internal/config"
	"bookfinder/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	appConfig *config.Config
	appLogger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bookfinder",
	Short: "Discover books from the Open Library catalog",
	Long: `bookfinder browses recently edited books, runs keyword and field searches
against the Open Library catalog and shows book details enriched with the
matching Wikipedia summary.

"bookfinder serve" exposes the screens as a JSON API for a browser front end.
The other subcommands render the same screens in the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnvFiles()

		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Log.Level = level
		}

		log, err := logger.New(&logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cfg.Log.Output,
		})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		appConfig = cfg
		appLogger = log
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appLogger != nil {
			_ = appLogger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bookfinder.yaml when present)")
	rootCmd.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json", false, "print results as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
