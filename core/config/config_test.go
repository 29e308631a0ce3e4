package config_test

import (
	"testing"

	"vehicle-tracker/core/config"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	assert.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "localhost:9000", cfg.Archive.Endpoint)
	assert.Equal(t, "server-logs", cfg.Archive.Bucket)
	assert.Equal(t, "ImmobilizerLog", cfg.Archive.LogfilePrefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 30, cfg.Ingest.RetentionDays)
	assert.Equal(t, 6, cfg.Ingest.PhantomStaleHours)
	assert.Equal(t, 3, cfg.Ingest.PhantomDeletionOffsetHours)
	assert.Equal(t, 7, cfg.Ingest.UnusedDaysLimit)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("ARCHIVE_BUCKET", "other-logs")
	t.Setenv("INGEST_RETENTION_DAYS", "14")

	cfg, err := config.LoadConfig(t.TempDir())
	assert.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "other-logs", cfg.Archive.Bucket)
	assert.Equal(t, 14, cfg.Ingest.RetentionDays)
}
