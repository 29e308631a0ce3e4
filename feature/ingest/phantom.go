package ingest

import (
	"context"
	"fmt"
	"time"

	"vehicle-tracker/feature/ingest/models"

	"gorm.io/gorm"
)

// SweepPhantoms transitions phantom vehicles to DELETED. A phantom is a car
// the server stopped reinitializing: its status is not DELETED and its last
// init time is either unknown or older than the staleness window.
//
// The deletion time is estimated as last init time plus the configured
// offset. When the init time was never observed the deletion time stays
// unset; that is an explicit unknown, not an error.
//
// This is the only engine-initiated lifecycle transition; everything else is
// driven by observed log lines. The sweep is independent of any batch and is
// meant to run periodically.
func SweepPhantoms(ctx context.Context, db *gorm.DB, policy Config, now time.Time) (int, error) {
	tx := db.WithContext(ctx)
	staleCutoff := now.Add(-policy.PhantomStaleness())

	var phantoms []models.Car
	err := tx.
		Where("status <> ?", models.StatusDeleted).
		Where("last_init_time IS NULL OR last_init_time < ?", staleCutoff).
		Find(&phantoms).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query phantom cars: %w", err)
	}

	for i := range phantoms {
		car := &phantoms[i]

		status, err := car.Status.TransitionTo(models.StatusDeleted)
		if err != nil {
			return 0, fmt.Errorf("car %s: %w", car.ServerID, err)
		}
		car.Status = status

		car.DeletionTime = nil
		if car.LastInitTime != nil {
			deletion := car.LastInitTime.Add(policy.PhantomDeletionOffset())
			car.DeletionTime = &deletion
		}

		err = tx.Model(car).Select("status", "deletion_time").Updates(models.Car{
			Status:       car.Status,
			DeletionTime: car.DeletionTime,
		}).Error
		if err != nil {
			return 0, fmt.Errorf("failed to mark phantom car %s: %w", car.ServerID, err)
		}
	}

	return len(phantoms), nil
}
