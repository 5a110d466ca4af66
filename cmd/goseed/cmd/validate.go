package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goseed/internal/database"
	"github.com/dbsmedya/goseed/internal/graph"
	"github.com/dbsmedya/goseed/internal/logger"
	"github.com/dbsmedya/goseed/internal/produce"
	"github.com/dbsmedya/goseed/internal/schema"
	"github.com/dbsmedya/goseed/internal/seeder"
	"github.com/dbsmedya/goseed/internal/sqlutil"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and run preflight checks",
	Long: `Validate checks the configuration file and runs preflight checks
against the target database.

Checks performed:
  - Configuration syntax and required fields
  - Override generator names against the registry
  - Database connectivity
  - Schema introspection
  - Foreign-key cycle detection per schema

Example:
  goseed validate --config goseed.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(produce.DefaultRegistry()); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting validation checks...")

	dbManager := database.NewManager(cfg)

	ctx := context.Background()

	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Ping(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	fmt.Fprintf(outputWriter, "\n=== Configuration Validation ===\n")
	fmt.Fprintf(outputWriter, "Config file: %s\n", GetConfigFile())
	fmt.Fprintf(outputWriter, "Driver: %s\n\n", cfg.Database.Driver)

	inspector := schema.NewInspector(dbManager.DB, dbManager.Dialect())

	schemaList := cfg.Seed.Schemas
	if len(schemaList) == 0 {
		if dbManager.Dialect() == sqlutil.MySQL {
			schemaList = []string{cfg.Database.Database}
		} else {
			schemaList = []string{"public"}
		}
	}

	hasErrors := false
	for _, schemaName := range schemaList {
		fmt.Fprintf(outputWriter, "--- Schema: %s ---\n", schemaName)

		tables, err := inspector.ListTables(ctx, schemaName)
		if err != nil {
			fmt.Fprintf(outputWriter, "❌ Introspection failed: %v\n\n", err)
			hasErrors = true
			continue
		}
		tables = seeder.FilterTables(cfg.Seed.IncludeTables, cfg.Seed.ExcludeTables, schemaName, tables)
		fmt.Fprintf(outputWriter, "Tables: %d\n", len(tables))

		g := graph.Build(tables)
		if err := g.Validate(); err != nil {
			fmt.Fprintf(outputWriter, "❌ %v\n\n", err)
			hasErrors = true
			continue
		}

		fmt.Fprintf(outputWriter, "✅ All checks passed\n\n")
	}

	if hasErrors {
		return fmt.Errorf("validation failed for one or more schemas")
	}

	fmt.Fprintln(outputWriter, "=== Validation Complete ===")
	fmt.Fprintln(outputWriter, "✅ All schemas validated successfully")
	return nil
}
