package cmd

import (
	"context"
	"fmt"
	"os"

	"littlesteps-be/internal/bootstrap"
	"littlesteps-be/internal/config"
	"littlesteps-be/internal/pkg/logger"
	"littlesteps-be/pkg/database"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Operator tasks for the LittleSteps backend",
	Long: `maintenance runs the scheduled jobs of the LittleSteps backend directly
against the database, without going through the HTTP cleanup endpoint.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log to stdout at debug level")
}

// openCore loads and validates config, then builds the shared dependencies.
func openCore(cmd *cobra.Command) (*config.Config, *bootstrap.Core, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	log := logger.NewZapLogger(cfg.App.LogFilePath, !verbose)

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	core, err := bootstrap.NewCore(context.Background(), db, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, core, nil
}
