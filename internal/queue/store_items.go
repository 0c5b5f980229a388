package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Enqueue records that a submission attempt needs conversion. Enqueueing a
// pair that is already queued returns the existing entry untouched.
func (s *Store) Enqueue(ctx context.Context, submissionID int64, attempt int) (*Entry, error) {
	if submissionID <= 0 {
		return nil, fmt.Errorf("enqueue: invalid submission id %d", submissionID)
	}
	if attempt < 0 {
		return nil, fmt.Errorf("enqueue: invalid attempt %d", attempt)
	}
	timestamp := nowString()
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO conversion_queue (
            submission_id, submission_attempt, attempted_conversions, created_at, updated_at
        ) VALUES (?, ?, 0, ?, ?)
        ON CONFLICT (submission_id, submission_attempt) DO NOTHING`,
		submissionID,
		attempt,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert queue entry: %w", err)
	}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+entryColumns+` FROM conversion_queue WHERE submission_id = ? AND submission_attempt = ?`,
		submissionID,
		attempt,
	)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("load queued entry: %w", err)
	}
	return entry, nil
}

// GetByID fetches a queue entry by identifier. It returns (nil, nil) when the
// entry does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM conversion_queue WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// FetchBatch returns at most limit entries in store order (oldest id first).
func (s *Store) FetchBatch(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	entries, err := s.queryEntriesWithRetry(ctx, `SELECT `+entryColumns+` FROM conversion_queue ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}
	return entries, nil
}

// List returns every queued entry ordered by id.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM conversion_queue ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Delete removes an entry by identifier. Deleting an absent entry is not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM conversion_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	return nil
}

// Remove deletes an entry by identifier and reports whether a row was removed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM conversion_queue WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all entries from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM conversion_queue`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// ClearExhausted removes entries that have reached the attempt limit.
func (s *Store) ClearExhausted(ctx context.Context, limit int) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM conversion_queue WHERE attempted_conversions >= ?`, limit)
	if err != nil {
		return 0, fmt.Errorf("clear exhausted: %w", err)
	}
	return res.RowsAffected()
}
