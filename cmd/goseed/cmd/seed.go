package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goseed/internal/database"
	"github.com/dbsmedya/goseed/internal/lock"
	"github.com/dbsmedya/goseed/internal/logger"
	"github.com/dbsmedya/goseed/internal/produce"
	"github.com/dbsmedya/goseed/internal/seeder"
)

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the target database with synthetic rows",
	Long: `Seed introspects the configured schemas, orders tables by their
foreign-key dependencies, and inserts synthetic rows until every table
reaches the target count.

The run is a single transaction: it either commits as a whole or leaves
the database untouched. With --dry-run every statement still executes,
so constraint problems surface, but the transaction is rolled back.

Example:
  goseed seed --config goseed.yaml --rows 500 --seed 42`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedForce, "force", false,
		"Force execution even if the run lock cannot be acquired (use with caution)")

	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	log.Infow("Starting seeding run",
		"config", GetConfigFile(),
		"rows", cfg.Seed.Rows,
		"dry_run", cfg.Seed.DryRun,
	)

	dbManager := database.NewManager(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := dbManager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Ping(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	// One writer per target at a time; concurrent runs would fight over
	// the same uniqueness space.
	if !seedForce {
		runLock, err := lock.New(ctx, dbManager.DB, dbManager.Dialect(), cfg.Database.Database)
		if err != nil {
			return err
		}
		if err := runLock.Acquire(ctx); err != nil {
			if errors.Is(err, lock.ErrLockHeld) {
				return fmt.Errorf("another goseed run is active on %s (use --force to override)", cfg.Database.Database)
			}
			return fmt.Errorf("failed to acquire run lock: %w", err)
		}
		defer runLock.Release(context.Background())
		log.Infow("Acquired run lock", "lock", runLock.Name())
	} else {
		log.Warn("Skipping run lock acquisition (--force flag used)")
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("Received shutdown signal - aborting run...")
		cancel()
	}()

	uow, err := dbManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	orch := seeder.NewOrchestrator(cfg, uow, dbManager.Dialect(), log)
	summary, err := orch.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Seeding run cancelled by user")
			return nil
		}
		return fmt.Errorf("seeding run failed: %w", err)
	}

	if cfg.Seed.DryRun {
		if err := uow.Rollback(); err != nil {
			return err
		}
		log.Info("Dry run complete, all changes rolled back")
	} else {
		if err := uow.Commit(); err != nil {
			return err
		}
	}

	fmt.Println()
	summary.Render(os.Stdout)
	return nil
}
