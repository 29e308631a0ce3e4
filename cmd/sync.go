package cmd

import (
	"context"
	"fmt"

	"vehicle-tracker/core/archive"
	"vehicle-tracker/core/config"
	"vehicle-tracker/core/database"
	"vehicle-tracker/core/logger"
	"vehicle-tracker/feature/ingest"
	"vehicle-tracker/feature/ingest/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd runs one ingestion pass from the command line, typically from cron.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one log ingestion pass",
	Long: `Fetches pending unit directories from the log archive, parses their
vehicle logfiles and reconciles the results into the database.

Units already recorded in the crawl cursor are skipped, so repeated
invocations only process what is new.`,
	RunE: runSync,
}

func init() {
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := models.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	client, err := archive.NewClient(cfg.Archive)
	if err != nil {
		return fmt.Errorf("failed to connect to log archive: %w", err)
	}

	svc := ingest.NewService(db, client, l, cfg.Ingest)
	report, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync run %s: %w", report.RunID, err)
	}

	l.Info("Sync complete",
		zap.String("run_id", report.RunID),
		zap.Int("units_processed", report.UnitsProcessed),
		zap.Int("units_skipped", report.UnitsSkipped))
	return nil
}
