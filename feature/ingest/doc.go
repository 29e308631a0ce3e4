// Package ingest implements the parsing and reconciliation engine for game
// server vehicle logs.
//
// The game server writes one log directory per session, named by a Unix
// timestamp. Each directory holds a vehicle logfile whose lines record
// vehicle initializations, deletions and player interactions. This package
// turns those lines into persisted players, cars and an append-only event
// history, and keeps that state correct across repeated ingestion runs.
//
// # Pipeline
//
//	archive listing -> crawl cursor -> raw lines -> Normalize -> Batch -> Reconcile
//
//   - ParseLine is a pure function converting one raw line into a typed
//     Record, or an ErrSkipLine error for malformed lines.
//   - Normalize folds the records of one unit into a deduplicated Batch,
//     merging repeated observations of the same player or car.
//   - Reconcile diffs a Batch against the store: bulk-creates new rows,
//     updates only changed ones, purges cars past the retention horizon and
//     appends events with resolved references.
//   - NextUnits/MarkDone form the crawl cursor guaranteeing each unit is
//     reconciled at most once.
//   - Service drives the whole pass and reports counters per run.
//
// # Idempotence
//
// Replaying a unit is idempotent for players and cars but doubles its
// events; the crawl cursor is the replay guard, which is why MarkDone only
// runs after a successful reconcile.
//
// # Maintenance
//
// SweepPhantoms transitions vehicles the server silently dropped, and the
// retention sweep purges long-deleted rows. Both run independently of any
// unit, from the sweep command or a scheduler.
package ingest
