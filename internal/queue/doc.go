// Package queue persists pending PDF conversion requests in SQLite.
//
// Each Entry names a submission attempt whose files must be converted before
// graders can annotate them, plus the number of drains that have already tried
// it. The Store exposes exactly the operations the drain needs (bounded batch
// fetch, atomic attempt increment, idempotent delete by id) along with the
// enqueue path and the inspection helpers used by the CLI.
//
// The database is treated as transient storage for outstanding work rather
// than a long-term archive. Schema changes bump the version in schema.go;
// users clear the database to adopt the new schema.
package queue
