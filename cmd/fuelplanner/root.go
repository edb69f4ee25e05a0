package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fuelplanner/internal/app"
	"fuelplanner/internal/config"
	"fuelplanner/internal/log"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:           "fuelplanner",
	Short:         "fuelplanner builds hour-by-hour race nutrition plans",
	Long:          "fuelplanner computes carbohydrate, fluid, and sodium targets for a race and edits a per-hour plan of gels, drinks, and water against them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides FUELPLAN_DB_PATH)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})
	return cfg, nil
}

func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}
