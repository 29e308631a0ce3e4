// Package archive provides access to the game server log archive.
//
// The game server uploads its logs to an S3-compatible bucket with one
// directory per server session, named by the Unix timestamp of the session
// start. Each directory contains at most one vehicle logfile (identified by a
// configurable name prefix) alongside unrelated server logs.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easy
// to mock archive interactions for unit testing (see core/archive/mocks).
//
// # Operations
//
//   - ListUnitDirs: Lists the unit directories available in the archive.
//   - FetchLogfile: Downloads the vehicle logfile of one unit and splits it
//     into raw lines.
//
// A missing logfile is reported as ErrNoLogfile so the sync orchestrator can
// skip the unit without treating it as fatal.
package archive
