package ingest

import "time"

// Config holds the ingestion and maintenance policy.
// It is threaded explicitly into the reconciler and the sweeps; nothing in
// this package reads ambient global state.
type Config struct {
	// RetentionDays is the age in days past which deleted vehicles are purged.
	// Zero disables the retention sweep.
	RetentionDays int `mapstructure:"retention_days" default:"30"`
	// MinUnitAgeDays skips unit directories older than this many days.
	// Zero means no lower bound.
	MinUnitAgeDays int `mapstructure:"min_unit_age_days" default:"0"`
	// PhantomStaleHours is the staleness window after which a vehicle that was
	// never reinitialized is considered a phantom.
	PhantomStaleHours int `mapstructure:"phantom_stale_hours" default:"6"`
	// PhantomDeletionOffsetHours is added to the last init time to estimate
	// when a phantom vehicle actually disappeared.
	PhantomDeletionOffsetHours int `mapstructure:"phantom_deletion_offset_hours" default:"3"`
	// OwnerMinEvents is the minimum number of events binding a player to a
	// vehicle before the player counts as its owner.
	OwnerMinEvents int `mapstructure:"owner_min_events" default:"5"`
	// OwnerMinDays is the minimum span in days between the first and last of
	// those events.
	OwnerMinDays int `mapstructure:"owner_min_days" default:"3"`
	// UnusedDaysLimit marks vehicles unused for this many days in the
	// long-unused report.
	UnusedDaysLimit int `mapstructure:"unused_days_limit" default:"7"`
}

// RetentionHorizon returns the retention cutoff duration, or zero when the
// purge is disabled.
func (c Config) RetentionHorizon() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// PhantomStaleness returns the phantom staleness window.
func (c Config) PhantomStaleness() time.Duration {
	return time.Duration(c.PhantomStaleHours) * time.Hour
}

// PhantomDeletionOffset returns the offset applied to estimate a phantom's
// deletion time.
func (c Config) PhantomDeletionOffset() time.Duration {
	return time.Duration(c.PhantomDeletionOffsetHours) * time.Hour
}
