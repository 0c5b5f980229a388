// Package drain processes the conversion queue in bounded batches.
//
// Each Drain call fetches at most one batch of queue entries and walks them
// in store order. For every entry it looks up the submission, drops the entry
// when the submission is gone or the entry has used up its attempts, and
// otherwise records the attempt before asking the converter for each affected
// user's combined document. Entries whose users are all past the polling
// states are removed; the rest stay queued for the next run.
//
// Converter failures are isolated per user. A failing user is logged with
// its error code and never stops the remaining users or entries; only
// context cancellation ends a drain early.
package drain
