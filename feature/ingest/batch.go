package ingest

import (
	"time"

	"vehicle-tracker/feature/ingest/models"

	"go.uber.org/zap"
)

// BatchEvent is an event folded from one log line, still carrying identity
// keys instead of database references. The reconciler resolves them after the
// player and car upserts.
type BatchEvent struct {
	Time time.Time
	// SteamID is empty for events without an acting player (deletions).
	SteamID  string
	ServerID string
	Action   string
	Position string
}

// Batch is the deduplicated in-memory result of normalizing one unit
// directory. It is owned by a single reconciliation call and discarded
// afterwards. Iteration order of players and cars follows first observation;
// events keep original line order.
type Batch struct {
	UnitKey string

	players     map[string]*models.Player
	playerOrder []string
	cars        map[string]*models.Car
	carOrder    []string
	events      []BatchEvent

	// Skipped counts lines that failed the grammar. Exposed for
	// observability; a high count never rejects the unit.
	Skipped int
}

// Players returns the batch players in first-observation order.
func (b *Batch) Players() []*models.Player {
	players := make([]*models.Player, 0, len(b.playerOrder))
	for _, key := range b.playerOrder {
		players = append(players, b.players[key])
	}
	return players
}

// Cars returns the batch cars in first-observation order.
func (b *Batch) Cars() []*models.Car {
	cars := make([]*models.Car, 0, len(b.carOrder))
	for _, key := range b.carOrder {
		cars = append(cars, b.cars[key])
	}
	return cars
}

// Events returns the batch events in original line order.
func (b *Batch) Events() []BatchEvent {
	return b.events
}

// Empty reports whether the batch carries no entities at all.
func (b *Batch) Empty() bool {
	return len(b.players) == 0 && len(b.cars) == 0 && len(b.events) == 0
}

// Normalize folds the raw lines of one unit directory into a Batch.
// Lines are processed in file order; malformed lines are counted and skipped.
func Normalize(unitKey string, lines []string, logger *zap.Logger) *Batch {
	batch := &Batch{
		UnitKey: unitKey,
		players: make(map[string]*models.Player),
		cars:    make(map[string]*models.Car),
	}

	for number, line := range lines {
		record, err := ParseLine(unitKey, line)
		if err != nil {
			if line != "" {
				logger.Debug("Skipping malformed line",
					zap.String("unit", unitKey),
					zap.Int("line", number),
					zap.Error(err))
			}
			batch.Skipped++
			continue
		}

		car := batch.upsertCar(record)

		switch record.Kind {
		case RecordCarInit:
			t := record.Time
			car.LastInitTime = &t
			// Initialization is not a player-visible action: no event.

		case RecordCarDelete:
			t := record.Time
			car.Status = models.StatusDeleted
			car.DeletionTime = &t
			batch.events = append(batch.events, BatchEvent{
				Time:     record.Time,
				ServerID: car.ServerID,
				Action:   record.Action,
				Position: car.Position,
			})

		case RecordPlayerAction:
			player := batch.upsertPlayer(record.Player)
			t := record.Time
			car.LastUseTime = &t
			batch.events = append(batch.events, BatchEvent{
				Time:     record.Time,
				SteamID:  player.SteamID,
				ServerID: car.ServerID,
				Action:   record.Action,
				Position: car.Position,
			})
		}
	}

	return batch
}

// upsertCar replaces the batch entry for the observed car with the fresh
// descriptor, carrying forward only the last init time seen earlier in the
// same unit. Last observation wins for every other field.
func (b *Batch) upsertCar(record *Record) *models.Car {
	car := &models.Car{
		ServerID: record.Car.ServerID,
		Name:     record.Car.Name,
		CarType:  record.Car.CarType,
		Position: record.Car.Position,
		Status:   record.Car.Status,
	}

	if existing, ok := b.cars[car.ServerID]; ok {
		car.LastInitTime = existing.LastInitTime
	} else {
		b.carOrder = append(b.carOrder, car.ServerID)
	}
	b.cars[car.ServerID] = car

	return car
}

// upsertPlayer merges a player observation into the batch. When the same
// Steam ID reappears under a different nickname, the last observed name wins
// and the previous one joins the alternate names.
func (b *Batch) upsertPlayer(obs *PlayerObservation) *models.Player {
	if existing, ok := b.players[obs.SteamID]; ok {
		existing.Rename(obs.Name)
		return existing
	}

	player := &models.Player{SteamID: obs.SteamID, Name: obs.Name}
	b.players[obs.SteamID] = player
	b.playerOrder = append(b.playerOrder, obs.SteamID)
	return player
}
