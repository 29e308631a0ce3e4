package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"vehicle-tracker/feature/ingest/models"
)

// Suffixes classifying a log line. The grammar is fixed by the game server
// and must be matched bit-for-bit.
const (
	initSuffix   = "initialized."
	deleteSuffix = "DELETED."
)

// serverTimezone is the fixed offset the game server writes wall-clock
// times in.
var serverTimezone = time.FixedZone("UTC+3", 3*60*60)

// ErrSkipLine marks a line that does not match the vehicle log grammar.
// This is a recovered condition: the line is counted and ignored, the unit
// is never rejected for it.
var ErrSkipLine = errors.New("line does not match the vehicle log grammar")

var (
	// car:<name=(GAZ-59037) type=BTR id=746019054 pos=2528.236328 256.355103 9582.357422 status=[FREE]>
	carRe = regexp.MustCompile(`car:<name=\((.*)\) type=(.*) id=(\d+) pos=((?:\d+\.\d{6}\s){3})status=\[(.*)\]>`)
	// Player{name:Plan steam:76561199163269309 pos:2528.438721 257.033264 9583.657227}
	playerRe = regexp.MustCompile(`Player\{name:(.*) steam:(\d{17}) pos:[^}]*\.\d{6}\}`)
	// Action text sits between the closing player brace and the car descriptor.
	actionRe = regexp.MustCompile(`\.\d{6}\}\s(.*)\scar:`)
	// Wall-clock time at the start of the line.
	timeRe = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5]?[0-9]):([0-5]?[0-9])`)
)

// RecordKind classifies a parsed log line.
type RecordKind int

const (
	// RecordCarInit is a server-side vehicle initialization.
	RecordCarInit RecordKind = iota
	// RecordCarDelete is a server-side vehicle deletion.
	RecordCarDelete
	// RecordPlayerAction is a player interacting with a vehicle.
	RecordPlayerAction
)

// CarObservation is a vehicle descriptor extracted from one line.
type CarObservation struct {
	ServerID string
	Name     string
	CarType  string
	Position string
	Status   models.CarStatus
}

// PlayerObservation is a player descriptor extracted from one line.
type PlayerObservation struct {
	SteamID string
	Name    string
}

// Record is the typed result of parsing one log line.
type Record struct {
	Kind   RecordKind
	Time   time.Time
	Car    CarObservation
	Player *PlayerObservation
	Action string
}

// UnitDate converts a unit directory key (a Unix timestamp string) to the
// calendar date of that unit, at midnight UTC.
func UnitDate(unitKey string) (time.Time, error) {
	ts, err := strconv.ParseInt(unitKey, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unit key %q is not a timestamp: %w", unitKey, err)
	}
	t := time.Unix(ts, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseLine converts one raw log line into a typed Record. It is a pure
// function of its two inputs. Lines that do not match the grammar return an
// error wrapping ErrSkipLine.
func ParseLine(unitKey, rawLine string) (*Record, error) {
	line := strings.TrimSpace(rawLine)

	car, err := parseCar(line)
	if err != nil {
		return nil, err
	}

	actionTime, err := parseActionTime(unitKey, line)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(line, initSuffix) {
		return &Record{Kind: RecordCarInit, Time: actionTime, Car: *car}, nil
	}

	if strings.HasSuffix(line, deleteSuffix) {
		status, err := car.Status.TransitionTo(models.StatusDeleted)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSkipLine, err)
		}
		car.Status = status
		return &Record{Kind: RecordCarDelete, Time: actionTime, Car: *car, Action: deleteSuffix}, nil
	}

	player, action, err := parsePlayerAction(line)
	if err != nil {
		return nil, err
	}

	return &Record{
		Kind:   RecordPlayerAction,
		Time:   actionTime,
		Car:    *car,
		Player: player,
		Action: action,
	}, nil
}

// parseCar extracts the vehicle descriptor.
func parseCar(line string) (*CarObservation, error) {
	m := carRe.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("%w: no car descriptor", ErrSkipLine)
	}

	status, err := models.ParseCarStatus(m[5])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSkipLine, err)
	}

	return &CarObservation{
		ServerID: m[3],
		Name:     m[1],
		CarType:  m[2],
		Position: roundPosition(m[4]),
		Status:   status,
	}, nil
}

// roundPosition trims server coordinates from six decimal places to three
// and joins them with commas.
func roundPosition(raw string) string {
	fields := strings.Fields(raw)
	rounded := make([]string, 0, len(fields))
	for _, field := range fields {
		rounded = append(rounded, field[:len(field)-3])
	}
	return strings.Join(rounded, ", ")
}

// parseActionTime combines the unit's embedded date with the line's leading
// wall-clock token into an absolute timestamp in the server timezone.
func parseActionTime(unitKey, line string) (time.Time, error) {
	date, err := UnitDate(unitKey)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrSkipLine, err)
	}

	m := timeRe.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: no time token", ErrSkipLine)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	second, _ := strconv.Atoi(m[3])

	return time.Date(date.Year(), date.Month(), date.Day(),
		hour, minute, second, 0, serverTimezone), nil
}

// parsePlayerAction extracts the player descriptor and the action text
// between it and the car descriptor.
func parsePlayerAction(line string) (*PlayerObservation, string, error) {
	pm := playerRe.FindStringSubmatch(line)
	if pm == nil {
		return nil, "", fmt.Errorf("%w: no player descriptor", ErrSkipLine)
	}

	am := actionRe.FindStringSubmatch(line)
	if am == nil {
		return nil, "", fmt.Errorf("%w: no action text", ErrSkipLine)
	}

	return &PlayerObservation{SteamID: pm[2], Name: pm[1]}, am[1], nil
}
