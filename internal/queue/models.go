package queue

import "time"

// Entry is a pending conversion request for one submission attempt.
type Entry struct {
	ID                   int64
	SubmissionID         int64
	SubmissionAttempt    int
	AttemptedConversions int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Exhausted reports whether the entry has used up its conversion attempts.
func (e Entry) Exhausted(limit int) bool {
	return e.AttemptedConversions >= limit
}

// Stats summarizes queue depth relative to an attempt limit.
type Stats struct {
	Total     int
	Fresh     int
	Retrying  int
	Exhausted int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	MissingColumns   []string
	IntegrityCheck   bool
	TotalEntries     int
	Error            string
}
