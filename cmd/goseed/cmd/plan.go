package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goseed/internal/database"
	"github.com/dbsmedya/goseed/internal/logger"
	"github.com/dbsmedya/goseed/internal/seeder"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the insertion plan without writing anything",
	Long: `Plan introspects the configured schemas and displays the order in
which tables would be seeded, together with how many rows each table
is missing. Nothing is written.

Example:
  goseed plan --config goseed.yaml --rows 500`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	dbManager := database.NewManager(cfg)

	ctx := context.Background()

	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Ping(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	orch := seeder.NewOrchestrator(cfg, dbManager.DB, dbManager.Dialect(), log)
	plans, err := orch.Plan(ctx)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	fmt.Fprintf(outputWriter, "=== Seeding Plan (target %d rows per table) ===\n", cfg.Seed.Rows)
	for _, plan := range plans {
		fmt.Fprintf(outputWriter, "\nSchema: %s\n", plan.Schema)
		if len(plan.Tables) == 0 {
			fmt.Fprintln(outputWriter, "  (no tables selected)")
			continue
		}
		for i, tp := range plan.Tables {
			fmt.Fprintf(outputWriter, "  %2d. %-30s existing=%-6d missing=%d\n",
				i+1, tp.Table.Name, tp.Existing, tp.Missing)
		}
	}

	return nil
}
