// Package logging assembles structured slog loggers and formatting helpers used
// across editpdf.
//
// New and NewFromConfig return the logger together with a close function for
// any log files they opened. The console handler prints the correlation
// fields (run, queue entry, submission, assignment, user, attempt) as one
// bracketed block after the message so a drain's lines can be followed by eye;
// the JSON handler keeps every field as a plain key.
//
// Context helpers tag lines with the drain run ID and the queue entry being
// processed. NewNop serves tests and wiring code that cannot fail.
package logging
