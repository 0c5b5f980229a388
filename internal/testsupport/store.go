package testsupport

import (
	"context"
	"testing"

	"editpdf/internal/config"
	"editpdf/internal/queue"
	"editpdf/internal/submission"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg.QueueDBPath())
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenSubmissions opens the submission tables on the queue database.
func MustOpenSubmissions(t testing.TB, store *queue.Store) *submission.Store {
	t.Helper()

	subs, err := submission.Open(context.Background(), store.DB())
	if err != nil {
		t.Fatalf("submission.Open: %v", err)
	}
	return subs
}

// Enqueue adds a queue entry and optionally bumps its attempt counter.
func Enqueue(t testing.TB, store *queue.Store, submissionID int64, attempt, attempted int) queue.Entry {
	t.Helper()

	ctx := context.Background()
	entry, err := store.Enqueue(ctx, submissionID, attempt)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	for i := 0; i < attempted; i++ {
		if err := store.IncrementAttempt(ctx, entry.ID); err != nil {
			t.Fatalf("store.IncrementAttempt: %v", err)
		}
	}
	entry.AttemptedConversions = attempted
	return *entry
}
