package ingest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"vehicle-tracker/feature/ingest/models"

	"gorm.io/gorm"
)

// NextUnits filters a transport listing down to the unit directories that
// still need reconciliation: keys that parse as a unit timestamp, are not in
// the persisted cursor, and are not older than the configured minimum unit
// age. The result is sorted by unit timestamp ascending so units are
// processed in chronological order.
func NextUnits(ctx context.Context, db *gorm.DB, listing []string, policy Config, now time.Time) ([]string, error) {
	candidates := make([]string, 0, len(listing))
	for _, key := range listing {
		if _, err := strconv.ParseInt(key, 10, 64); err != nil {
			continue
		}
		if policy.MinUnitAgeDays > 0 {
			unitDate, err := UnitDate(key)
			if err != nil {
				continue
			}
			limit := now.UTC().AddDate(0, 0, -policy.MinUnitAgeDays)
			limitDate := time.Date(limit.Year(), limit.Month(), limit.Day(), 0, 0, 0, 0, time.UTC)
			if !unitDate.After(limitDate) {
				continue
			}
		}
		candidates = append(candidates, key)
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	var done []models.ParsedUnit
	err := db.WithContext(ctx).Where("unit_key IN ?", candidates).Find(&done).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl cursor: %w", err)
	}

	doneSet := make(map[string]struct{}, len(done))
	for _, unit := range done {
		doneSet[unit.UnitKey] = struct{}{}
	}

	var pending []string
	for _, key := range candidates {
		if _, ok := doneSet[key]; !ok {
			pending = append(pending, key)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		a, _ := strconv.ParseInt(pending[i], 10, 64)
		b, _ := strconv.ParseInt(pending[j], 10, 64)
		return a < b
	})

	return pending, nil
}

// MarkDone durably records a unit as reconciled. It must only be called
// after the unit's reconciliation completed without error; a crash before
// this point leaves the unit pending so the next run retries it.
func MarkDone(ctx context.Context, db *gorm.DB, unitKey string) error {
	unit := models.ParsedUnit{UnitKey: unitKey}
	if err := db.WithContext(ctx).Create(&unit).Error; err != nil {
		return fmt.Errorf("failed to advance crawl cursor past %s: %w", unitKey, err)
	}
	return nil
}
