package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goseed/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
	rows      int
	randSeed  int64
	batchSize int
	schemas   []string
	dryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "goseed",
	Short: "Constraint-aware synthetic data seeder",
	Long: `A CLI tool that fills relational schemas with synthetic data while
honoring the schema's own constraints.

Features:
  - Automatic table ordering from foreign-key dependencies (Kahn's algorithm)
  - Foreign keys filled by sampling existing parent rows
  - Unique constraints respected via bounded retry and pair exhaustion
  - Type-aware value generation with per-column overrides
  - Reproducible runs from a fixed random seed
  - Dry-run mode that executes everything and rolls back`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "goseed.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Seeding overrides
	rootCmd.PersistentFlags().IntVar(&rows, "rows", 0,
		"Override target row count per table")
	rootCmd.PersistentFlags().Int64Var(&randSeed, "seed", 0,
		"Random seed for reproducible runs (0 picks a time-based seed)")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0,
		"Override rows per INSERT statement")
	rootCmd.PersistentFlags().StringSliceVar(&schemas, "schemas", nil,
		"Override schemas to seed")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false,
		"Execute the full run inside a transaction and roll it back")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() config.CLIOverrides {
	return config.CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		Rows:      rows,
		Seed:      randSeed,
		BatchSize: batchSize,
		Schemas:   schemas,
		DryRun:    dryRun,
	}
}

// loadConfig loads the config file and applies CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, err
	}
	cfg.ApplyOverrides(GetCLIOverrides())
	return cfg, nil
}
