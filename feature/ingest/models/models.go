package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Player represents a game server player identified by a stable Steam ID.
// Players are never deleted by the ingestion engine.
type Player struct {
	ID      uint   `gorm:"column:id;primaryKey"`
	SteamID string `gorm:"column:steam_id;size:17;uniqueIndex"`
	Name    string `gorm:"column:name;size:255"`
	// AltNames holds previously seen nicknames, comma-joined. It only grows
	// and never contains the current name.
	AltNames string `gorm:"column:alt_names;type:text"`
}

// TableName overrides the table name for Player.
func (Player) TableName() string {
	return "players"
}

// AltNameList returns the alternate names as a slice.
func (p *Player) AltNameList() []string {
	if p.AltNames == "" {
		return nil
	}
	parts := strings.Split(p.AltNames, ", ")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}

// AddAltName records a previously used nickname. Duplicates and the current
// name are ignored.
func (p *Player) AddAltName(name string) {
	if name == "" || name == p.Name {
		return
	}
	for _, existing := range p.AltNameList() {
		if existing == name {
			return
		}
	}
	if p.AltNames == "" {
		p.AltNames = name
		return
	}
	p.AltNames += ", " + name
}

// Rename makes name the current nickname, pushing the old one into the
// alternate names set.
func (p *Player) Rename(name string) {
	if name == "" || name == p.Name {
		return
	}
	old := p.Name
	p.Name = name
	p.AddAltName(old)
	// The new current name must not linger in the alternate set.
	p.removeAltName(name)
}

func (p *Player) removeAltName(name string) {
	names := p.AltNameList()
	kept := names[:0]
	for _, n := range names {
		if n != name {
			kept = append(kept, n)
		}
	}
	p.AltNames = strings.Join(kept, ", ")
}

// Car represents a vehicle tracked from the server logs. ServerID is the
// vehicle id assigned by the game server; ids are reused over time, so a
// DELETED car can be resurrected by a later observation with the same id.
type Car struct {
	ID       uint      `gorm:"column:id;primaryKey"`
	ServerID string    `gorm:"column:car_id;size:32;uniqueIndex"`
	Name     string    `gorm:"column:name;size:255"`
	CarType  string    `gorm:"column:car_type;size:255"`
	Position string    `gorm:"column:position;size:255"`
	Status   CarStatus `gorm:"column:status;size:10;default:LINKED"`
	// LastInitTime is the last time the server initialized the vehicle.
	LastInitTime *time.Time `gorm:"column:last_init_time"`
	// LastUseTime is the last time a player interacted with the vehicle.
	LastUseTime *time.Time `gorm:"column:last_use_time"`
	// DeletionTime is set when the vehicle was observed (or inferred) deleted.
	// It can stay nil for phantom vehicles whose init time was never seen.
	DeletionTime *time.Time `gorm:"column:deletion_time"`
}

// TableName overrides the table name for Car.
func (Car) TableName() string {
	return "cars"
}

// Event is one immutable fact from the logs. Events are append-only: the
// engine never updates or deletes them, and purging a car does not cascade
// into its history (the car reference is a plain column, not a DB constraint).
type Event struct {
	ID         uint      `gorm:"column:id;primaryKey"`
	ActionTime time.Time `gorm:"column:action_time;index"`
	// PlayerID is nil for events without an acting player (deletions).
	PlayerID *uint  `gorm:"column:player_id;index"`
	CarID    uint   `gorm:"column:car_id_ref;index"`
	Action   string `gorm:"column:action;size:255;index"`
	Position string `gorm:"column:position;size:255"`
}

// TableName overrides the table name for Event.
func (Event) TableName() string {
	return "events"
}

// ParsedUnit is one entry of the crawl cursor: a unit directory that has been
// fully reconciled. Entries are append-only.
type ParsedUnit struct {
	ID       uint      `gorm:"column:id;primaryKey"`
	UnitKey  string    `gorm:"column:unit_key;size:32;uniqueIndex"`
	ParsedAt time.Time `gorm:"column:parsed_at;autoCreateTime"`
}

// TableName overrides the table name for ParsedUnit.
func (ParsedUnit) TableName() string {
	return "parsed_units"
}

// SyncRun records one orchestrator invocation for operator visibility.
// Counters are persisted even when the run aborts partway.
type SyncRun struct {
	RunID          string     `gorm:"column:run_id;size:36;primaryKey"`
	StartedAt      time.Time  `gorm:"column:started_at"`
	FinishedAt     *time.Time `gorm:"column:finished_at"`
	UnitsProcessed int        `gorm:"column:units_processed"`
	UnitsSkipped   int        `gorm:"column:units_skipped"`
	PlayersCreated int        `gorm:"column:players_created"`
	PlayersUpdated int        `gorm:"column:players_updated"`
	CarsCreated    int        `gorm:"column:cars_created"`
	CarsUpdated    int        `gorm:"column:cars_updated"`
	CarsPurged     int        `gorm:"column:cars_purged"`
	EventsCreated  int        `gorm:"column:events_created"`
	Error          string     `gorm:"column:error;type:text"`
}

// TableName overrides the table name for SyncRun.
func (SyncRun) TableName() string {
	return "sync_runs"
}

// Migrate creates or updates the schema for all ingest models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Player{},
		&Car{},
		&Event{},
		&ParsedUnit{},
		&SyncRun{},
	)
}
