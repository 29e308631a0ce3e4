package cmd

import (
	"context"
	"fmt"

	"vehicle-tracker/core/config"
	"vehicle-tracker/core/database"
	"vehicle-tracker/core/logger"
	"vehicle-tracker/feature/ingest"
	"vehicle-tracker/feature/ingest/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sweepCmd runs the batch-independent maintenance from the command line.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run maintenance sweeps over the vehicle table",
	Long: `Runs the two maintenance passes that do not depend on fresh log data:

Phantom detection marks vehicles as DELETED when the server has not
re-initialized them within the staleness window, estimating a deletion
time from the last initialization when one is known.

The retention purge permanently removes vehicles whose deletion time is
older than the configured horizon. Their event history is kept.`,
	RunE: runSweep,
}

func init() {
	RootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
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

	// The sweep needs no archive access; a nil client is never touched.
	svc := ingest.NewService(db, nil, l, cfg.Ingest)
	phantoms, purged, err := svc.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("maintenance sweep: %w", err)
	}

	l.Info("Sweep complete",
		zap.Int("phantoms_marked", phantoms),
		zap.Int("cars_purged", purged))
	return nil
}
