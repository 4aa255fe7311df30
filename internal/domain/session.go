package domain

import "time"

// Identity is the opaque user identifier tasks are owned by.
type Identity string

type Principal struct {
	ID          Identity
	DisplayName string
}

// SessionState is a point-in-time copy of a session.
// Authenticated implies a non-empty Identity.
type SessionState struct {
	ID            string
	Identity      Identity
	DisplayName   string
	Authenticated bool
	StartedAt     time.Time
}
