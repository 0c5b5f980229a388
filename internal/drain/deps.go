package drain

import (
	"context"
	"time"

	"editpdf/internal/docconv"
	"editpdf/internal/queue"
	"editpdf/internal/submission"
)

// QueueStore is the persisted conversion queue.
type QueueStore interface {
	FetchBatch(ctx context.Context, limit int) ([]queue.Entry, error)
	IncrementAttempt(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// SubmissionStore looks up submissions. A missing submission is (nil, nil).
type SubmissionStore interface {
	SubmissionByID(ctx context.Context, id int64) (*submission.Submission, error)
}

// AssignmentResolver produces assignment handles by id.
type AssignmentResolver interface {
	AssignmentByID(ctx context.Context, id int64) (*submission.Assignment, error)
}

// GroupResolver lists the active members of a submission group.
type GroupResolver interface {
	ActiveMembers(ctx context.Context, groupID int64) ([]int64, error)
}

// Converter is the document conversion service.
type Converter interface {
	CombinedStatus(ctx context.Context, assignment *submission.Assignment, userID int64, attempt int) (docconv.Status, error)
	GeneratePageImages(ctx context.Context, assignment *submission.Assignment, userID int64, attempt int, readonly bool) error
}

// Observer receives drain outcomes, typically for metrics.
type Observer interface {
	ObserveEntry(outcome string)
	ObserveUser(outcome, errorCode string)
	ObserveDrain(duration time.Duration, err error)
}

// Dependencies bundles the collaborators a Drainer works against.
type Dependencies struct {
	Queue       QueueStore
	Submissions SubmissionStore
	Assignments AssignmentResolver
	Groups      GroupResolver
	Converter   Converter
}

type nopObserver struct{}

func (nopObserver) ObserveEntry(string) {}

func (nopObserver) ObserveUser(string, string) {}

func (nopObserver) ObserveDrain(time.Duration, error) {}
