package queue

import (
	"context"
	"fmt"
)

// IncrementAttempt records one more conversion attempt for the entry. The
// update is a single-row atomic increment keyed by id, so it is safe against
// concurrent enqueues of unrelated rows.
func (s *Store) IncrementAttempt(ctx context.Context, id int64) error {
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE conversion_queue
         SET attempted_conversions = attempted_conversions + 1, updated_at = ?
         WHERE id = ?`,
		nowString(),
		id,
	); err != nil {
		return fmt.Errorf("increment attempt for entry %d: %w", id, err)
	}
	return nil
}
