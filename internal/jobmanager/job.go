package jobmanager

import "time"

// Job is a snapshot of a background process managed by a Table. Values are
// copies; mutating a Job does not affect the Table it was read from.
type Job struct {
	// ID correlates log records for the Job. It plays no part in lookups,
	// which are always by PID.
	ID        string
	PID       int
	Command   string
	State     JobState
	StartedAt time.Time
}
