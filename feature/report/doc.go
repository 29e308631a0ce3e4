// Package report exposes read-only views over the reconciled vehicle world.
//
// It never writes entity state itself. Everything it serves is derived from
// the players, cars and events that the ingest feature maintains, joined
// manually since events carry plain reference columns.
//
// # Components
//
//   - Service: Aggregation queries (stats, profiles, theft cases, idle cars).
//   - Handler: Exposes the HTTP endpoints and the manual sync trigger.
//   - Loader: Registers the feature with the application.
//
// # HTTP Endpoints
//
//   - GET  /stats              : World summary counts and last activity.
//   - GET  /players/:steam_id  : Player profile with events and owned cars.
//   - GET  /cars/:car_id       : Car history by server-assigned id.
//   - GET  /thefts             : Lock-tampering events, newest first.
//   - GET  /unused             : Cars idle beyond the configured limit.
//   - POST /sync               : Run one ingestion pass.
package report
