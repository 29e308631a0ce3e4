package report_test

import (
	"context"
	"testing"

	"vehicle-tracker/feature/ingest"
	"vehicle-tracker/feature/report"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestServiceStats_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := report.NewService(db, zap.NewNop(), ingest.Config{})

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `players`").
		WillReturnError(gorm.ErrInvalidDB)

	_, err := svc.Stats(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count players")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceStats_CountsFromRows(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := report.NewService(db, zap.NewNop(), ingest.Config{})

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `players`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(3))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `cars`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(2))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `events`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))

	stats, err := svc.Stats(context.Background())
	assert.NoError(t, err)
	assert.EqualValues(t, 3, stats.Players)
	assert.EqualValues(t, 2, stats.Cars)
	assert.EqualValues(t, 0, stats.Events)
	assert.Nil(t, stats.LastActionTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}
