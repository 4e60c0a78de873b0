// Package history provides SQLite-backed persistence for authorization attempts.
package history

import "time"

// Attempt represents one authorization attempt from start to settlement.
type Attempt struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string // granted, denied, timed_out, failed
	Tries      int
	Reason     string
	Granted    string // comma-separated record types covered by the grant
}

// Step represents a notable transition observed during an attempt.
type Step struct {
	ID        int
	AttemptID string
	Phase     string
	Detail    string
	Timestamp time.Time
}

// Summary provides a high-level view of an attempt for listing.
type Summary struct {
	ID         string
	Outcome    string
	Tries      int
	Reason     string
	Steps      int
	FinishedAt time.Time
}
