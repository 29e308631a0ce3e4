package ingest

import (
	"context"
	"fmt"
	"time"

	"vehicle-tracker/feature/ingest/models"

	"gorm.io/gorm"
)

// Batch sizes for bulk inserts, matching the store's sweet spot for
// multi-row statements.
const (
	playerInsertBatchSize = 500
	carInsertBatchSize    = 500
	eventInsertBatchSize  = 1000
)

// Counters aggregates the row mutations of one or more reconciliations.
type Counters struct {
	PlayersCreated int `json:"players_created"`
	PlayersUpdated int `json:"players_updated"`
	CarsCreated    int `json:"cars_created"`
	CarsUpdated    int `json:"cars_updated"`
	CarsPurged     int `json:"cars_purged"`
	EventsCreated  int `json:"events_created"`
}

// Add accumulates another set of counters into c.
func (c *Counters) Add(other Counters) {
	c.PlayersCreated += other.PlayersCreated
	c.PlayersUpdated += other.PlayersUpdated
	c.CarsCreated += other.CarsCreated
	c.CarsUpdated += other.CarsUpdated
	c.CarsPurged += other.CarsPurged
	c.EventsCreated += other.EventsCreated
}

// Reconcile applies one batch against the persisted state and returns the
// mutation counters. The three phases touch disjoint collections: players,
// then cars (including the retention sweep), then events, whose rows resolve
// foreign references against the freshly upserted store. Any store error is
// engine-fatal and propagates to the caller.
//
// Reconciliation is idempotent per player and car row but NOT per event:
// replaying the same batch inserts its events again. The crawl cursor is the
// guard against replay; see ParsedUnit.
func Reconcile(ctx context.Context, db *gorm.DB, batch *Batch, policy Config, now time.Time) (Counters, error) {
	tx := db.WithContext(ctx)
	var counters Counters

	if err := syncPlayers(tx, batch, &counters); err != nil {
		return counters, err
	}
	if err := syncCars(tx, batch, policy, now, &counters); err != nil {
		return counters, err
	}
	if err := syncEvents(tx, batch, &counters); err != nil {
		return counters, err
	}

	return counters, nil
}

// syncPlayers partitions batch players into new and existing rows. New rows
// are bulk-inserted; existing rows are written only when the observed
// nickname differs from the persisted one.
func syncPlayers(db *gorm.DB, batch *Batch, counters *Counters) error {
	players := batch.Players()
	if len(players) == 0 {
		return nil
	}

	steamIDs := make([]string, 0, len(players))
	for _, p := range players {
		steamIDs = append(steamIDs, p.SteamID)
	}

	var existing []models.Player
	if err := db.Where("steam_id IN ?", steamIDs).Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to query existing players: %w", err)
	}

	existingByID := make(map[string]*models.Player, len(existing))
	for i := range existing {
		existingByID[existing[i].SteamID] = &existing[i]
	}

	var toCreate []*models.Player
	for _, p := range players {
		if _, ok := existingByID[p.SteamID]; !ok {
			toCreate = append(toCreate, p)
		}
	}

	if len(toCreate) > 0 {
		if err := db.CreateInBatches(toCreate, playerInsertBatchSize).Error; err != nil {
			return fmt.Errorf("failed to create players: %w", err)
		}
		counters.PlayersCreated += len(toCreate)
	}

	for _, p := range players {
		record, ok := existingByID[p.SteamID]
		if !ok {
			continue
		}
		if record.Name == p.Name {
			// Unchanged rows are left untouched to avoid write amplification.
			continue
		}

		// Merge batch-local alternate names before the rename so nothing
		// observed in this unit is lost.
		for _, alt := range p.AltNameList() {
			record.AddAltName(alt)
		}
		record.Rename(p.Name)

		err := db.Model(record).Select("name", "alt_names").Updates(models.Player{
			Name:     record.Name,
			AltNames: record.AltNames,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update player %s: %w", record.SteamID, err)
		}
		counters.PlayersUpdated++
	}

	return nil
}

// syncCars upserts batch cars and then runs the retention sweep. Existing
// rows always take status, deletion time, last init time and position from
// the batch; last use time is sticky and never regresses to null.
func syncCars(db *gorm.DB, batch *Batch, policy Config, now time.Time, counters *Counters) error {
	cars := batch.Cars()
	if len(cars) > 0 {
		serverIDs := make([]string, 0, len(cars))
		for _, c := range cars {
			serverIDs = append(serverIDs, c.ServerID)
		}

		var existing []models.Car
		if err := db.Where("car_id IN ?", serverIDs).Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to query existing cars: %w", err)
		}

		existingByID := make(map[string]*models.Car, len(existing))
		for i := range existing {
			existingByID[existing[i].ServerID] = &existing[i]
		}

		var toCreate []*models.Car
		for _, c := range cars {
			if _, ok := existingByID[c.ServerID]; !ok {
				toCreate = append(toCreate, c)
			}
		}

		if len(toCreate) > 0 {
			if err := db.CreateInBatches(toCreate, carInsertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to create cars: %w", err)
			}
			counters.CarsCreated += len(toCreate)
		}

		for _, c := range cars {
			record, ok := existingByID[c.ServerID]
			if !ok {
				continue
			}

			fields := []string{"name", "car_type", "status", "deletion_time", "last_init_time", "position"}
			if c.LastUseTime != nil {
				fields = append(fields, "last_use_time")
			}

			err := db.Model(record).Select(fields).Updates(models.Car{
				Name:         c.Name,
				CarType:      c.CarType,
				Status:       c.Status,
				DeletionTime: c.DeletionTime,
				LastInitTime: c.LastInitTime,
				LastUseTime:  c.LastUseTime,
				Position:     c.Position,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to update car %s: %w", record.ServerID, err)
			}
			counters.CarsUpdated++
		}
	}

	return sweepRetention(db, policy, now, counters)
}

// sweepRetention purges cars whose deletion time fell behind the retention
// horizon. The sweep is global, not scoped to the current batch. A zero
// horizon disables it.
func sweepRetention(db *gorm.DB, policy Config, now time.Time, counters *Counters) error {
	if policy.RetentionDays <= 0 {
		return nil
	}

	cutoff := now.Add(-policy.RetentionHorizon())
	result := db.Where("deletion_time IS NOT NULL AND deletion_time < ?", cutoff).Delete(&models.Car{})
	if result.Error != nil {
		return fmt.Errorf("failed to purge deleted cars: %w", result.Error)
	}
	counters.CarsPurged += int(result.RowsAffected)

	return nil
}

// syncEvents inserts every batch event as a new row, resolving player and
// car references by identity key against the upserted store. Events are
// never deduplicated against existing rows.
func syncEvents(db *gorm.DB, batch *Batch, counters *Counters) error {
	events := batch.Events()
	if len(events) == 0 {
		return nil
	}

	playerIDs, err := playerIDsBySteamID(db, events)
	if err != nil {
		return err
	}
	carIDs, err := carIDsByServerID(db, events)
	if err != nil {
		return err
	}

	rows := make([]models.Event, 0, len(events))
	for _, event := range events {
		row := models.Event{
			ActionTime: event.Time,
			Action:     event.Action,
			Position:   event.Position,
		}

		carID, ok := carIDs[event.ServerID]
		if !ok {
			return fmt.Errorf("event references unknown car %s", event.ServerID)
		}
		row.CarID = carID

		if event.SteamID != "" {
			playerID, ok := playerIDs[event.SteamID]
			if !ok {
				return fmt.Errorf("event references unknown player %s", event.SteamID)
			}
			row.PlayerID = &playerID
		}

		rows = append(rows, row)
	}

	if err := db.CreateInBatches(&rows, eventInsertBatchSize).Error; err != nil {
		return fmt.Errorf("failed to create events: %w", err)
	}
	counters.EventsCreated += len(rows)

	return nil
}

func playerIDsBySteamID(db *gorm.DB, events []BatchEvent) (map[string]uint, error) {
	steamIDs := make([]string, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e.SteamID == "" {
			continue
		}
		if _, ok := seen[e.SteamID]; ok {
			continue
		}
		seen[e.SteamID] = struct{}{}
		steamIDs = append(steamIDs, e.SteamID)
	}
	if len(steamIDs) == 0 {
		return nil, nil
	}

	var players []models.Player
	if err := db.Where("steam_id IN ?", steamIDs).Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve player references: %w", err)
	}

	ids := make(map[string]uint, len(players))
	for _, p := range players {
		ids[p.SteamID] = p.ID
	}
	return ids, nil
}

func carIDsByServerID(db *gorm.DB, events []BatchEvent) (map[string]uint, error) {
	serverIDs := make([]string, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if _, ok := seen[e.ServerID]; ok {
			continue
		}
		seen[e.ServerID] = struct{}{}
		serverIDs = append(serverIDs, e.ServerID)
	}

	var cars []models.Car
	if err := db.Where("car_id IN ?", serverIDs).Find(&cars).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve car references: %w", err)
	}

	ids := make(map[string]uint, len(cars))
	for _, c := range cars {
		ids[c.ServerID] = c.ID
	}
	return ids, nil
}
