package ingest

import (
	"context"
	"errors"
	"testing"

	"vehicle-tracker/core/archive"
	"vehicle-tracker/core/archive/mocks"
	"vehicle-tracker/feature/ingest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestServiceRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy Path Advances Cursor", func(t *testing.T) {
		db := setupTestDB(t, "service_happy")

		client := new(mocks.Client)
		client.On("ListUnitDirs", mock.Anything).Return([]string{testUnitKey, "not-a-unit"}, nil)
		client.On("FetchLogfile", mock.Anything, testUnitKey).Return([]string{initLine, actionLine}, nil)

		svc := NewService(db, client, zap.NewNop(), Config{})
		report, err := svc.Run(ctx)
		assert.NoError(t, err)

		assert.Equal(t, 1, report.UnitsProcessed)
		assert.Equal(t, 0, report.UnitsSkipped)
		assert.Equal(t, 1, report.PlayersCreated)
		assert.Equal(t, 1, report.CarsCreated)
		assert.Equal(t, 1, report.EventsCreated)
		assert.NotEmpty(t, report.RunID)

		var doneCount int64
		db.Model(&models.ParsedUnit{}).Where("unit_key = ?", testUnitKey).Count(&doneCount)
		assert.EqualValues(t, 1, doneCount)

		var run models.SyncRun
		assert.NoError(t, db.Where("run_id = ?", report.RunID).First(&run).Error)
		assert.NotNil(t, run.FinishedAt)
		assert.Equal(t, 1, run.EventsCreated)
		assert.Empty(t, run.Error)
	})

	t.Run("Second Run Is Idempotent", func(t *testing.T) {
		db := setupTestDB(t, "service_rerun")

		client := new(mocks.Client)
		client.On("ListUnitDirs", mock.Anything).Return([]string{testUnitKey}, nil)
		client.On("FetchLogfile", mock.Anything, testUnitKey).Return([]string{actionLine}, nil)

		svc := NewService(db, client, zap.NewNop(), Config{})

		_, err := svc.Run(ctx)
		assert.NoError(t, err)

		report, err := svc.Run(ctx)
		assert.NoError(t, err)
		assert.Equal(t, 0, report.UnitsProcessed, "done unit must not be refetched")

		var eventCount int64
		db.Model(&models.Event{}).Count(&eventCount)
		assert.EqualValues(t, 1, eventCount)

		client.AssertNumberOfCalls(t, "FetchLogfile", 1)
	})

	t.Run("Fetch Failure Skips Unit And Keeps Cursor", func(t *testing.T) {
		db := setupTestDB(t, "service_fetchfail")

		client := new(mocks.Client)
		client.On("ListUnitDirs", mock.Anything).Return([]string{"1677952821", "1677952900"}, nil)
		client.On("FetchLogfile", mock.Anything, "1677952821").Return(nil, archive.ErrNoLogfile)
		client.On("FetchLogfile", mock.Anything, "1677952900").Return([]string{actionLine}, nil)

		svc := NewService(db, client, zap.NewNop(), Config{})
		report, err := svc.Run(ctx)
		assert.NoError(t, err)

		assert.Equal(t, 1, report.UnitsProcessed)
		assert.Equal(t, 1, report.UnitsSkipped)

		// The failed unit stays pending for the next run.
		var doneCount int64
		db.Model(&models.ParsedUnit{}).Where("unit_key = ?", "1677952821").Count(&doneCount)
		assert.EqualValues(t, 0, doneCount)
	})

	t.Run("Listing Failure Is Fatal", func(t *testing.T) {
		db := setupTestDB(t, "service_listfail")

		client := new(mocks.Client)
		client.On("ListUnitDirs", mock.Anything).Return(nil, errors.New("connection refused"))

		svc := NewService(db, client, zap.NewNop(), Config{})
		report, err := svc.Run(ctx)
		assert.Error(t, err)
		assert.NotEmpty(t, report.Error)

		var run models.SyncRun
		assert.NoError(t, db.Where("run_id = ?", report.RunID).First(&run).Error)
		assert.NotEmpty(t, run.Error)
	})

	t.Run("Store Failure Aborts Remaining Units", func(t *testing.T) {
		db := setupTestDB(t, "service_storefail")

		client := new(mocks.Client)
		client.On("ListUnitDirs", mock.Anything).Return([]string{"1677952821", "1677952900"}, nil)
		client.On("FetchLogfile", mock.Anything, mock.Anything).Return([]string{actionLine}, nil)

		// Breaking the events table makes reconciliation engine-fatal.
		assert.NoError(t, db.Migrator().DropTable(&models.Event{}))

		svc := NewService(db, client, zap.NewNop(), Config{})
		report, err := svc.Run(ctx)
		assert.Error(t, err)

		assert.Equal(t, 0, report.UnitsProcessed)
		// Only the first unit was attempted; the run aborted before the second.
		client.AssertNumberOfCalls(t, "FetchLogfile", 1)
	})

	t.Run("Cancelled Context Stops At Unit Boundary", func(t *testing.T) {
		db := setupTestDB(t, "service_cancel")

		client := new(mocks.Client)
		client.On("ListUnitDirs", mock.Anything).Return([]string{"1677952821", "1677952900"}, nil)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		svc := NewService(db, client, zap.NewNop(), Config{})
		report, err := svc.Run(cancelled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, report.UnitsProcessed)
		client.AssertNotCalled(t, "FetchLogfile", mock.Anything, mock.Anything)
	})
}
