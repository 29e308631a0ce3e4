package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vehicle-tracker/core/archive"
	"vehicle-tracker/feature/ingest/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service orchestrates one ingestion pass: cursor filtering, fetching,
// normalization and reconciliation, one unit at a time.
type Service struct {
	db     *gorm.DB
	client archive.Client
	logger *zap.Logger
	policy Config
}

// NewService creates a new ingestion service.
func NewService(db *gorm.DB, client archive.Client, logger *zap.Logger, policy Config) *Service {
	return &Service{
		db:     db,
		client: client,
		logger: logger,
		policy: policy,
	}
}

// RunReport is the result of one ingestion pass. Counters are reported even
// when the run aborted partway, so operators can see how far it progressed.
type RunReport struct {
	RunID          string  `json:"run_id"`
	UnitsProcessed int     `json:"units_processed"`
	UnitsSkipped   int     `json:"units_skipped"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Error          string  `json:"error,omitempty"`
	Counters
}

// Run executes one ingestion pass. Units are processed strictly one at a
// time; the crawl cursor advances only after a unit reconciled successfully,
// so a crash mid-run reprocesses at most the in-flight unit.
//
// Fetch failures and missing logfiles skip the unit and leave the cursor
// unadvanced for the next run. Store errors abort the remaining units and
// are returned alongside the counters accumulated so far.
func (s *Service) Run(ctx context.Context) (*RunReport, error) {
	started := time.Now()
	report := &RunReport{RunID: uuid.NewString()}

	run := models.SyncRun{RunID: report.RunID, StartedAt: started}
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return report, fmt.Errorf("failed to record sync run: %w", err)
	}

	s.logger.Info("Sync run started", zap.String("run_id", report.RunID))

	runErr := s.processUnits(ctx, report)

	report.ElapsedSeconds = time.Since(started).Seconds()
	if runErr != nil {
		report.Error = runErr.Error()
	}
	s.finishRun(&run, report)

	s.logger.Info("Sync run finished",
		zap.String("run_id", report.RunID),
		zap.Int("units_processed", report.UnitsProcessed),
		zap.Int("units_skipped", report.UnitsSkipped),
		zap.Int("players_created", report.PlayersCreated),
		zap.Int("players_updated", report.PlayersUpdated),
		zap.Int("cars_created", report.CarsCreated),
		zap.Int("cars_updated", report.CarsUpdated),
		zap.Int("cars_purged", report.CarsPurged),
		zap.Int("events_created", report.EventsCreated),
		zap.Float64("elapsed_seconds", report.ElapsedSeconds),
		zap.String("error", report.Error))

	return report, runErr
}

func (s *Service) processUnits(ctx context.Context, report *RunReport) error {
	listing, err := s.client.ListUnitDirs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list log archive: %w", err)
	}

	units, err := NextUnits(ctx, s.db, listing, s.policy, time.Now())
	if err != nil {
		return err
	}

	s.logger.Info("Pending units", zap.Int("count", len(units)))

	for _, unitKey := range units {
		// Cancellation is honored at the unit boundary; an in-flight unit
		// always runs to completion.
		if err := ctx.Err(); err != nil {
			return err
		}

		lines, err := s.client.FetchLogfile(ctx, unitKey)
		if err != nil {
			// Unit-level recoverable: the cursor stays behind this unit so
			// the next run retries it.
			s.logger.Warn("Skipping unit, fetch failed",
				zap.String("unit", unitKey), zap.Error(err))
			report.UnitsSkipped++
			continue
		}
		if len(lines) == 0 {
			s.logger.Warn("Skipping unit, no usable lines",
				zap.String("unit", unitKey))
			report.UnitsSkipped++
			continue
		}

		batch := Normalize(unitKey, lines, s.logger)
		if batch.Skipped > 0 {
			s.logger.Info("Malformed lines in unit",
				zap.String("unit", unitKey), zap.Int("skipped", batch.Skipped))
		}

		counters, err := Reconcile(ctx, s.db, batch, s.policy, time.Now())
		report.Add(counters)
		if err != nil {
			// Engine-fatal: continuing would risk inconsistent multi-unit
			// state on a broken store.
			return fmt.Errorf("unit %s: %w", unitKey, err)
		}

		if err := MarkDone(ctx, s.db, unitKey); err != nil {
			return err
		}
		report.UnitsProcessed++

		s.logger.Info("Unit reconciled",
			zap.String("unit", unitKey),
			zap.Int("players", len(batch.Players())),
			zap.Int("cars", len(batch.Cars())),
			zap.Int("events", len(batch.Events())),
			zap.Int("skipped_lines", batch.Skipped))
	}

	return nil
}

// Sweep runs the batch-independent maintenance: phantom detection followed
// by the retention purge.
func (s *Service) Sweep(ctx context.Context) (phantoms int, purged int, err error) {
	now := time.Now()

	phantoms, err = SweepPhantoms(ctx, s.db, s.policy, now)
	if err != nil {
		return 0, 0, err
	}

	var counters Counters
	if err = sweepRetention(s.db.WithContext(ctx), s.policy, now, &counters); err != nil {
		return phantoms, 0, err
	}

	s.logger.Info("Maintenance sweep finished",
		zap.Int("phantoms", phantoms),
		zap.Int("purged", counters.CarsPurged))

	return phantoms, counters.CarsPurged, nil
}

// finishRun persists the run outcome; failures here are logged, not
// propagated, because the run result itself is already in hand.
func (s *Service) finishRun(run *models.SyncRun, report *RunReport) {
	finished := time.Now()
	run.FinishedAt = &finished
	run.UnitsProcessed = report.UnitsProcessed
	run.UnitsSkipped = report.UnitsSkipped
	run.PlayersCreated = report.PlayersCreated
	run.PlayersUpdated = report.PlayersUpdated
	run.CarsCreated = report.CarsCreated
	run.CarsUpdated = report.CarsUpdated
	run.CarsPurged = report.CarsPurged
	run.EventsCreated = report.EventsCreated
	run.Error = report.Error

	if err := s.db.Save(run).Error; err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("Failed to persist sync run result",
			zap.String("run_id", run.RunID), zap.Error(err))
	}
}
