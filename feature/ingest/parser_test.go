package ingest

import (
	"testing"
	"time"

	"vehicle-tracker/feature/ingest/models"

	"github.com/stretchr/testify/assert"
)

const (
	testUnitKey = "1677952821" // 2023-03-04 UTC

	actionLine = `22:38:00 Player{name:Plan steam:76561199163269309 pos:2528.438721 257.033264 9583.657227} entered vehicle car:<name=(GAZ-59037) type=BTR id=746019054 pos=2528.236328 256.355103 9582.357422 status=[FREE]>`
	initLine   = `22:34:46 car:<name=(GAZ-59037) type=BTR id=746019054 pos=2528.236328 256.355103 9582.357422 status=[LINKED]> initialized.`
	deleteLine = `23:59:59 car:<name=(GAZ-59037) type=BTR id=746019054 pos=2528.236328 256.355103 9582.357422 status=[FREE]> DELETED.`
)

func TestParseLine_PlayerAction(t *testing.T) {
	record, err := ParseLine(testUnitKey, actionLine)
	assert.NoError(t, err)
	assert.Equal(t, RecordPlayerAction, record.Kind)

	assert.Equal(t, "746019054", record.Car.ServerID)
	assert.Equal(t, "GAZ-59037", record.Car.Name)
	assert.Equal(t, "BTR", record.Car.CarType)
	assert.Equal(t, models.StatusFree, record.Car.Status)
	assert.Equal(t, "2528.236, 256.355, 9582.357", record.Car.Position)

	assert.NotNil(t, record.Player)
	assert.Equal(t, "76561199163269309", record.Player.SteamID)
	assert.Equal(t, "Plan", record.Player.Name)
	assert.Equal(t, "entered vehicle", record.Action)

	want := time.Date(2023, 3, 4, 22, 38, 0, 0, serverTimezone)
	assert.True(t, record.Time.Equal(want), "got %s want %s", record.Time, want)
}

func TestParseLine_CarInit(t *testing.T) {
	record, err := ParseLine(testUnitKey, initLine)
	assert.NoError(t, err)
	assert.Equal(t, RecordCarInit, record.Kind)
	assert.Equal(t, models.StatusLinked, record.Car.Status)
	assert.Nil(t, record.Player)
	assert.Empty(t, record.Action)
}

func TestParseLine_CarDelete(t *testing.T) {
	record, err := ParseLine(testUnitKey, deleteLine)
	assert.NoError(t, err)
	assert.Equal(t, RecordCarDelete, record.Kind)
	// The descriptor says FREE but the suffix forces DELETED.
	assert.Equal(t, models.StatusDeleted, record.Car.Status)
	assert.Equal(t, "DELETED.", record.Action)
	assert.Nil(t, record.Player)
}

func TestParseLine_Skips(t *testing.T) {
	cases := map[string]string{
		"Empty Line":            "",
		"No Car Descriptor":     `22:38:00 Player{name:Plan steam:76561199163269309 pos:1.000000 2.000000 3.000000} connected`,
		"No Time Token":         `Player{name:Plan steam:76561199163269309 pos:1.000000 2.000000 3.000000} entered vehicle car:<name=(Ada) type=CIV id=1 pos=1.000000 2.000000 3.000000 status=[FREE]>`,
		"Hour Out Of Range":     `25:00:00 car:<name=(Ada) type=CIV id=1 pos=1.000000 2.000000 3.000000 status=[FREE]> initialized.`,
		"No Player On Action":   `22:38:00 somebody touched car:<name=(Ada) type=CIV id=1 pos=1.000000 2.000000 3.000000 status=[FREE]>`,
		"Short Steam ID":        `22:38:00 Player{name:Plan steam:1234 pos:1.000000 2.000000 3.000000} entered vehicle car:<name=(Ada) type=CIV id=1 pos=1.000000 2.000000 3.000000 status=[FREE]>`,
		"Unknown Status":        `22:38:00 car:<name=(Ada) type=CIV id=1 pos=1.000000 2.000000 3.000000 status=[PARKED]> initialized.`,
		"Truncated Coordinates": `22:38:00 car:<name=(Ada) type=CIV id=1 pos=1.0 2.0 3.0 status=[FREE]> initialized.`,
	}

	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			record, err := ParseLine(testUnitKey, line)
			assert.Nil(t, record)
			assert.ErrorIs(t, err, ErrSkipLine)
		})
	}
}

func TestParseLine_BadUnitKey(t *testing.T) {
	record, err := ParseLine("not-a-timestamp", initLine)
	assert.Nil(t, record)
	assert.ErrorIs(t, err, ErrSkipLine)
}

func TestParseLine_IsPure(t *testing.T) {
	first, err1 := ParseLine(testUnitKey, actionLine)
	second, err2 := ParseLine(testUnitKey, actionLine)

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, first, second)
}

func TestUnitDate(t *testing.T) {
	date, err := UnitDate(testUnitKey)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2023, 3, 4, 0, 0, 0, 0, time.UTC), date)

	_, err = UnitDate("logs-backup")
	assert.Error(t, err)
}
