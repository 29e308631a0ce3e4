// Package config handles application configuration loading.
//
// Configuration is assembled from partial configs owned by the packages they
// describe (server, archive, logger, database, ingest policy). Values come
// from environment variables, optionally seeded from a .env file, with
// defaults declared as struct tags on the partial configs.
//
// # Environment Mapping
//
// Nested keys map to underscore-separated environment variables:
//
//	DATABASE_HOST      -> database.host
//	ARCHIVE_BUCKET     -> archive.bucket
//	INGEST_RETENTION_DAYS -> ingest.retention_days
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	db, err := database.Connect(cfg.Database)
package config
