// Package submission reads the assignment, submission, and group membership
// records the conversion drain needs to work out whose documents to convert.
//
// The tables live in the same SQLite file as the conversion queue. The drain
// only reads them; the write helpers exist for the enqueue tooling and tests.
package submission
