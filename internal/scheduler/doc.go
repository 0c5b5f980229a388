// Package scheduler runs conversion drains on a cron schedule.
//
// A file lock in the data directory keeps drains single-instance across
// processes: the long-running scheduler holds it for its whole lifetime and
// one-off drains take it for the duration of the run. Within the scheduler,
// a tick that fires while the previous drain is still going is skipped.
package scheduler
