package models

import "fmt"

// CarStatus is the lifecycle status of a vehicle as reported by the game server.
type CarStatus string

const (
	// StatusLinked means the vehicle is claimed by a player key.
	StatusLinked CarStatus = "LINKED"
	// StatusFree means the vehicle is unclaimed.
	StatusFree CarStatus = "FREE"
	// StatusDeleted means the vehicle no longer exists on the server.
	StatusDeleted CarStatus = "DELETED"
)

// ParseCarStatus validates a raw status token from a log line.
func ParseCarStatus(raw string) (CarStatus, error) {
	switch CarStatus(raw) {
	case StatusLinked, StatusFree, StatusDeleted:
		return CarStatus(raw), nil
	default:
		return "", fmt.Errorf("unknown car status %q", raw)
	}
}

// Valid reports whether the status is one of the known values.
func (s CarStatus) Valid() bool {
	_, err := ParseCarStatus(string(s))
	return err == nil
}

// TransitionTo returns the next status after an observation. Every transition
// between valid statuses is allowed: the server does not order LINKED/FREE
// strictly, and a DELETED vehicle can reappear because car ids are reused.
// Only invalid target values are rejected.
func (s CarStatus) TransitionTo(next CarStatus) (CarStatus, error) {
	if !next.Valid() {
		return s, fmt.Errorf("invalid status transition target %q", string(next))
	}
	return next, nil
}
