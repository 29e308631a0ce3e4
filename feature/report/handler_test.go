package report_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"vehicle-tracker/core/archive/mocks"
	"vehicle-tracker/feature/ingest"
	"vehicle-tracker/feature/ingest/models"
	"vehicle-tracker/feature/report"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testActionLine = "22:38:00 Player{name:Plan steam:76561199163269309 pos:2528.438721 257.033264 9583.657227} entered vehicle car:<name=(GAZ-59037) type=BTR id=746019054 pos=2528.236328 256.355103 9582.357422 status=[FREE]>"

func setupApp(t *testing.T, db *gorm.DB, client *mocks.Client) *fiber.App {
	t.Helper()

	logger := zap.NewNop()
	policy := ingest.Config{OwnerMinEvents: 3, OwnerMinDays: 2, UnusedDaysLimit: 7}

	ingestSvc := ingest.NewService(db, client, logger, policy)
	feature := report.NewFeature(db, logger, policy, ingestSvc)

	app := fiber.New()
	assert.NoError(t, feature.Load(app))
	return app
}

func TestHandleStats(t *testing.T) {
	db := setupReportDB(t, "handler_stats")
	app := setupApp(t, db, new(mocks.Client))

	player := seedPlayer(t, db, "76561199163269309", "Plan")
	car := seedCar(t, db, "746019054", "GAZ-59037", models.StatusFree)
	seedEvent(t, db, time.Now(), &player.ID, car.ID, "entered vehicle")

	resp, err := app.Test(httptest.NewRequest("GET", "/stats", nil), 2000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 1, body["players"])
	assert.EqualValues(t, 1, body["cars"])
	assert.EqualValues(t, 1, body["events"])
}

func TestHandlePlayer(t *testing.T) {
	db := setupReportDB(t, "handler_player")
	app := setupApp(t, db, new(mocks.Client))

	seedPlayer(t, db, "76561199163269309", "Plan")

	t.Run("Found", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/players/76561199163269309", nil), 2000)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(raw), "Plan")
	})

	t.Run("Not Found", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/players/76561199000000000", nil), 2000)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestHandleCar(t *testing.T) {
	db := setupReportDB(t, "handler_car")
	app := setupApp(t, db, new(mocks.Client))

	seedCar(t, db, "746019054", "GAZ-59037", models.StatusFree)

	t.Run("Found", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/cars/746019054", nil), 2000)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("Not Found", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/cars/999", nil), 2000)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestHandleThefts(t *testing.T) {
	db := setupReportDB(t, "handler_thefts")
	app := setupApp(t, db, new(mocks.Client))

	player := seedPlayer(t, db, "76561199163269309", "Plan")
	car := seedCar(t, db, "746019054", "GAZ-59037", models.StatusLinked)
	seedEvent(t, db, time.Now(), &player.ID, car.ID, "сломал замок")

	resp, err := app.Test(httptest.NewRequest("GET", "/thefts", nil), 2000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(raw), "сломал замок")
}

func TestHandleUnused(t *testing.T) {
	db := setupReportDB(t, "handler_unused")
	app := setupApp(t, db, new(mocks.Client))

	idle := time.Now().AddDate(0, 0, -10)
	car := seedCar(t, db, "1", "Idle", models.StatusLinked)
	assert.NoError(t, db.Model(car).Update("last_use_time", idle).Error)

	resp, err := app.Test(httptest.NewRequest("GET", "/unused", nil), 2000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(raw), "Idle")
}

func TestHandleSync(t *testing.T) {
	db := setupReportDB(t, "handler_sync")

	client := new(mocks.Client)
	client.On("ListUnitDirs", mock.Anything).Return([]string{"1677952821"}, nil)
	client.On("FetchLogfile", mock.Anything, "1677952821").Return([]string{testActionLine}, nil)

	app := setupApp(t, db, client)

	resp, err := app.Test(httptest.NewRequest("POST", "/sync", nil), 5000)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["run_id"])
	assert.EqualValues(t, 1, body["units_processed"])

	var eventCount int64
	db.Model(&models.Event{}).Count(&eventCount)
	assert.EqualValues(t, 1, eventCount)
}
