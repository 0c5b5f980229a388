package drain_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"editpdf/internal/docconv"
	"editpdf/internal/queue"
	"editpdf/internal/submission"
)

type fakeQueue struct {
	mu         sync.Mutex
	entries    map[int64]*queue.Entry
	fetchLimit int
	fetchErr   error
	incErr     map[int64]error
	deleteErr  map[int64]error
	deleted    []int64
	increments map[int64]int
}

func newFakeQueue(entries ...queue.Entry) *fakeQueue {
	q := &fakeQueue{
		entries:    make(map[int64]*queue.Entry),
		incErr:     make(map[int64]error),
		deleteErr:  make(map[int64]error),
		increments: make(map[int64]int),
	}
	for i := range entries {
		entry := entries[i]
		q.entries[entry.ID] = &entry
	}
	return q
}

func (q *fakeQueue) FetchBatch(_ context.Context, limit int) ([]queue.Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fetchLimit = limit
	if q.fetchErr != nil {
		return nil, q.fetchErr
	}
	ids := make([]int64, 0, len(q.entries))
	for id := range q.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]queue.Entry, 0, limit)
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		out = append(out, *q.entries[id])
	}
	return out, nil
}

func (q *fakeQueue) IncrementAttempt(_ context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.incErr[id]; err != nil {
		return err
	}
	if entry, ok := q.entries[id]; ok {
		entry.AttemptedConversions++
	}
	q.increments[id]++
	return nil
}

func (q *fakeQueue) Delete(_ context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.deleteErr[id]; err != nil {
		return err
	}
	delete(q.entries, id)
	q.deleted = append(q.deleted, id)
	return nil
}

func (q *fakeQueue) entry(id int64) (queue.Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.entries[id]
	if !ok {
		return queue.Entry{}, false
	}
	return *entry, true
}

type fakeSubmissions struct {
	byID map[int64]submission.Submission
	err  error
}

func (s *fakeSubmissions) SubmissionByID(_ context.Context, id int64) (*submission.Submission, error) {
	if s.err != nil {
		return nil, s.err
	}
	sub, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

type fakeAssignments struct {
	calls map[int64]int
}

func (a *fakeAssignments) AssignmentByID(_ context.Context, id int64) (*submission.Assignment, error) {
	if a.calls == nil {
		a.calls = make(map[int64]int)
	}
	a.calls[id]++
	return &submission.Assignment{ID: id, Name: "assignment"}, nil
}

type fakeGroups struct {
	members map[int64][]int64
}

func (g *fakeGroups) ActiveMembers(_ context.Context, groupID int64) ([]int64, error) {
	return g.members[groupID], nil
}

type pageCall struct {
	userID   int64
	attempt  int
	readonly bool
}

type fakeConverter struct {
	statuses  map[int64]docconv.Status
	statusErr map[int64]error
	pageErr   map[int64]error
	statusFor []int64
	pages     []pageCall
	onStatus  func()
}

func newFakeConverter() *fakeConverter {
	return &fakeConverter{
		statuses:  make(map[int64]docconv.Status),
		statusErr: make(map[int64]error),
		pageErr:   make(map[int64]error),
	}
}

func (c *fakeConverter) CombinedStatus(_ context.Context, _ *submission.Assignment, userID int64, _ int) (docconv.Status, error) {
	c.statusFor = append(c.statusFor, userID)
	if c.onStatus != nil {
		c.onStatus()
	}
	if err := c.statusErr[userID]; err != nil {
		return "", err
	}
	if status, ok := c.statuses[userID]; ok {
		return status, nil
	}
	return docconv.StatusComplete, nil
}

func (c *fakeConverter) GeneratePageImages(_ context.Context, _ *submission.Assignment, userID int64, attempt int, readonly bool) error {
	c.pages = append(c.pages, pageCall{userID: userID, attempt: attempt, readonly: readonly})
	return c.pageErr[userID]
}

func (c *fakeConverter) pageUsers() []int64 {
	var users []int64
	for _, call := range c.pages {
		if !call.readonly {
			users = append(users, call.userID)
		}
	}
	return users
}

type recordingObserver struct {
	entries []string
	users   []string
	codes   []string
	drains  int
	lastErr error
}

func (o *recordingObserver) ObserveEntry(outcome string) {
	o.entries = append(o.entries, outcome)
}

func (o *recordingObserver) ObserveUser(outcome, code string) {
	o.users = append(o.users, outcome)
	if code != "" {
		o.codes = append(o.codes, code)
	}
}

func (o *recordingObserver) ObserveDrain(_ time.Duration, err error) {
	o.drains++
	o.lastErr = err
}

var errBoom = errors.New("boom")
