// Package models defines the persisted entities of the ingestion engine.
//
// # Entities
//
//   - Player: a game server player keyed by Steam ID, with an append-only set
//     of previously seen nicknames.
//   - Car: a vehicle keyed by the server-assigned vehicle id, carrying its
//     lifecycle status (LINKED, FREE, DELETED) and observation timestamps.
//   - Event: one immutable log fact (who did what to which vehicle, when and
//     where). Events are never updated or deleted.
//   - ParsedUnit: the crawl cursor marking log units already reconciled.
//   - SyncRun: an audit row per ingestion run with aggregated counters.
//
// # Status State Machine
//
// CarStatus is a validated enumerated type rather than a free-form string, so
// invalid statuses from logs or hand-edited rows are rejected at parse time.
// All transitions between valid statuses are legal because the server reuses
// vehicle ids; see CarStatus.TransitionTo.
package models
