// Package database handles database connections.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL connections based on the application's configuration. An sqlite driver is also
// supported so tests can run against an in-memory database with the same code paths.
//
// # Connect
//
// The generic Connect function establishes a connection to the database. Connection
// pooling, I/O timeouts and an initial ping are configured for the MySQL path.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
