package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vehicle-tracker/feature/ingest"
	"vehicle-tracker/feature/ingest/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested player or car does not exist.
var ErrNotFound = errors.New("not found")

// theftActions are the exact action strings the game server writes for lock
// tampering. They are matched bit-for-bit against the event history.
var theftActions = []string{
	"сломал замок",
	"неудачная попытка взлома замка",
}

// DefaultPageSize bounds event listings per page.
const DefaultPageSize = 15

// Service provides read-only aggregations over the reconciled state.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	policy ingest.Config
}

// NewService creates a new report service.
func NewService(db *gorm.DB, logger *zap.Logger, policy ingest.Config) *Service {
	return &Service{db: db, logger: logger, policy: policy}
}

// WorldStats is the landing page summary.
type WorldStats struct {
	Players        int64      `json:"players"`
	Cars           int64      `json:"cars"`
	Events         int64      `json:"events"`
	LastActionTime *time.Time `json:"last_action_time"`
}

// Stats counts the reconciled world and reports the most recent activity.
func (s *Service) Stats(ctx context.Context) (*WorldStats, error) {
	tx := s.db.WithContext(ctx)
	stats := &WorldStats{}

	if err := tx.Model(&models.Player{}).Count(&stats.Players).Error; err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}
	if err := tx.Model(&models.Car{}).Count(&stats.Cars).Error; err != nil {
		return nil, fmt.Errorf("failed to count cars: %w", err)
	}
	if err := tx.Model(&models.Event{}).Count(&stats.Events).Error; err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	if stats.Events > 0 {
		var last models.Event
		if err := tx.Order("action_time DESC").First(&last).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch last event: %w", err)
		}
		stats.LastActionTime = &last.ActionTime
	}

	return stats, nil
}

// EventView is one event with its references resolved to display values.
type EventView struct {
	Time       time.Time `json:"time"`
	Action     string    `json:"action"`
	Position   string    `json:"position"`
	PlayerName string    `json:"player_name,omitempty"`
	SteamID    string    `json:"steam_id,omitempty"`
	CarName    string    `json:"car_name,omitempty"`
	CarID      string    `json:"car_id,omitempty"`
}

// OwnedCar is one entry of a player's ownership report.
type OwnedCar struct {
	Car        models.Car `json:"car"`
	EventCount int64      `json:"event_count"`
	FirstSeen  time.Time  `json:"first_seen"`
	LastSeen   time.Time  `json:"last_seen"`
}

// PlayerProfile is the full player view: identity, recent activity and the
// cars the player effectively owns.
type PlayerProfile struct {
	Player       models.Player `json:"player"`
	AltNames     []string      `json:"alt_names"`
	RecentEvents []EventView   `json:"recent_events"`
	OwnedCars    []OwnedCar    `json:"owned_cars"`
}

// Player builds the profile for one Steam ID. Page is 1-based.
func (s *Service) Player(ctx context.Context, steamID string, page int) (*PlayerProfile, error) {
	tx := s.db.WithContext(ctx)

	var player models.Player
	if err := tx.Where("steam_id = ?", steamID).First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("player %s: %w", steamID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch player: %w", err)
	}

	var events []models.Event
	err := tx.Where("player_id = ?", player.ID).
		Order("action_time DESC").
		Limit(DefaultPageSize).
		Offset(pageOffset(page)).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch player events: %w", err)
	}

	views, err := s.resolveEvents(tx, events)
	if err != nil {
		return nil, err
	}

	owned, err := s.ownedCars(tx, player.ID)
	if err != nil {
		return nil, err
	}

	return &PlayerProfile{
		Player:       player,
		AltNames:     player.AltNameList(),
		RecentEvents: views,
		OwnedCars:    owned,
	}, nil
}

// ownedCars aggregates the player's events per car and applies the ownership
// thresholds: enough interactions, spread over enough days.
func (s *Service) ownedCars(tx *gorm.DB, playerID uint) ([]OwnedCar, error) {
	type ownerRow struct {
		CarIDRef uint
		Count    int64
		First    time.Time
		Last     time.Time
	}

	var rows []ownerRow
	err := tx.Model(&models.Event{}).
		Select("car_id_ref, count(*) as count, min(action_time) as first, max(action_time) as last").
		Where("player_id = ?", playerID).
		Group("car_id_ref").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ownership: %w", err)
	}

	minSpan := time.Duration(s.policy.OwnerMinDays) * 24 * time.Hour

	var qualifyingIDs []uint
	byCarID := make(map[uint]ownerRow)
	for _, row := range rows {
		if row.Count < int64(s.policy.OwnerMinEvents) {
			continue
		}
		if row.Last.Sub(row.First) < minSpan {
			continue
		}
		qualifyingIDs = append(qualifyingIDs, row.CarIDRef)
		byCarID[row.CarIDRef] = row
	}
	if len(qualifyingIDs) == 0 {
		return nil, nil
	}

	var cars []models.Car
	if err := tx.Where("id IN ?", qualifyingIDs).Find(&cars).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch owned cars: %w", err)
	}

	// Purged cars drop out here; their aggregated events reference nothing.
	owned := make([]OwnedCar, 0, len(cars))
	for _, car := range cars {
		row := byCarID[car.ID]
		owned = append(owned, OwnedCar{
			Car:        car,
			EventCount: row.Count,
			FirstSeen:  row.First,
			LastSeen:   row.Last,
		})
	}
	return owned, nil
}

// CarHistory is the full car view with its recent events.
type CarHistory struct {
	Car          models.Car  `json:"car"`
	RecentEvents []EventView `json:"recent_events"`
}

// Car builds the history view for one server-assigned vehicle id.
func (s *Service) Car(ctx context.Context, serverID string, page int) (*CarHistory, error) {
	tx := s.db.WithContext(ctx)

	var car models.Car
	if err := tx.Where("car_id = ?", serverID).First(&car).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("car %s: %w", serverID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch car: %w", err)
	}

	var events []models.Event
	err := tx.Where("car_id_ref = ?", car.ID).
		Order("action_time DESC").
		Limit(DefaultPageSize).
		Offset(pageOffset(page)).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch car events: %w", err)
	}

	views, err := s.resolveEvents(tx, events)
	if err != nil {
		return nil, err
	}

	return &CarHistory{Car: car, RecentEvents: views}, nil
}

// TheftCases lists lock-tampering events, newest first.
func (s *Service) TheftCases(ctx context.Context, page int) ([]EventView, error) {
	tx := s.db.WithContext(ctx)

	var events []models.Event
	err := tx.Where("action IN ?", theftActions).
		Order("action_time DESC").
		Limit(DefaultPageSize).
		Offset(pageOffset(page)).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch theft cases: %w", err)
	}

	return s.resolveEvents(tx, events)
}

// LongUnused lists cars that have not been used for the configured limit,
// oldest first. Deleted cars are excluded.
func (s *Service) LongUnused(ctx context.Context) ([]models.Car, error) {
	cutoff := time.Now().AddDate(0, 0, -s.policy.UnusedDaysLimit)

	var cars []models.Car
	err := s.db.WithContext(ctx).
		Where("last_use_time IS NOT NULL AND last_use_time <= ?", cutoff).
		Where("status <> ?", models.StatusDeleted).
		Order("last_use_time ASC").
		Find(&cars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unused cars: %w", err)
	}

	return cars, nil
}

// resolveEvents joins player and car display values onto raw event rows.
// References can dangle after a retention purge; those fields stay empty.
func (s *Service) resolveEvents(tx *gorm.DB, events []models.Event) ([]EventView, error) {
	if len(events) == 0 {
		return nil, nil
	}

	playerIDs := make([]uint, 0, len(events))
	carIDs := make([]uint, 0, len(events))
	for _, e := range events {
		if e.PlayerID != nil {
			playerIDs = append(playerIDs, *e.PlayerID)
		}
		carIDs = append(carIDs, e.CarID)
	}

	players := make(map[uint]models.Player)
	if len(playerIDs) > 0 {
		var rows []models.Player
		if err := tx.Where("id IN ?", playerIDs).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve event players: %w", err)
		}
		for _, p := range rows {
			players[p.ID] = p
		}
	}

	cars := make(map[uint]models.Car)
	var rows []models.Car
	if err := tx.Where("id IN ?", carIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve event cars: %w", err)
	}
	for _, c := range rows {
		cars[c.ID] = c
	}

	views := make([]EventView, 0, len(events))
	for _, e := range events {
		view := EventView{
			Time:     e.ActionTime,
			Action:   e.Action,
			Position: e.Position,
		}
		if e.PlayerID != nil {
			if p, ok := players[*e.PlayerID]; ok {
				view.PlayerName = p.Name
				view.SteamID = p.SteamID
			}
		}
		if c, ok := cars[e.CarID]; ok {
			view.CarName = c.Name
			view.CarID = c.ServerID
		}
		views = append(views, view)
	}

	return views, nil
}

func pageOffset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * DefaultPageSize
}
