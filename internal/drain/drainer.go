package drain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"editpdf/internal/config"
	"editpdf/internal/logging"
	"editpdf/internal/queue"
	"editpdf/internal/submission"
)

const (
	// DefaultAttemptLimit is the number of conversion attempts an entry gets.
	DefaultAttemptLimit = 3
	// MaxBatchSize caps the number of entries a single drain touches.
	MaxBatchSize = config.MaxBatchSize
)

// Option configures a Drainer.
type Option func(*Drainer)

// WithAttemptLimit sets the attempt limit. Values below one keep the default.
func WithAttemptLimit(limit int) Option {
	return func(d *Drainer) {
		if limit >= 1 {
			d.attemptLimit = limit
		}
	}
}

// WithBatchSize sets the batch size, clamped to MaxBatchSize.
func WithBatchSize(size int) Option {
	return func(d *Drainer) {
		d.batchSize = config.ClampBatchSize(size)
	}
}

// WithLogger sets the logger used for drain output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Drainer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithObserver registers an outcome observer.
func WithObserver(observer Observer) Option {
	return func(d *Drainer) {
		if observer != nil {
			d.observer = observer
		}
	}
}

// WithRunIDGenerator overrides how run identifiers are produced.
func WithRunIDGenerator(fn func() string) Option {
	return func(d *Drainer) {
		if fn != nil {
			d.newRunID = fn
		}
	}
}

// Drainer works through the conversion queue.
type Drainer struct {
	queue       QueueStore
	submissions SubmissionStore
	assignments AssignmentResolver
	groups      GroupResolver
	converter   Converter

	attemptLimit int
	batchSize    int
	logger       *slog.Logger
	observer     Observer
	newRunID     func() string
}

// New constructs a Drainer. Every dependency is required.
func New(deps Dependencies, opts ...Option) (*Drainer, error) {
	switch {
	case deps.Queue == nil:
		return nil, errors.New("drain: queue store is required")
	case deps.Submissions == nil:
		return nil, errors.New("drain: submission store is required")
	case deps.Assignments == nil:
		return nil, errors.New("drain: assignment resolver is required")
	case deps.Groups == nil:
		return nil, errors.New("drain: group resolver is required")
	case deps.Converter == nil:
		return nil, errors.New("drain: converter is required")
	}
	d := &Drainer{
		queue:        deps.Queue,
		submissions:  deps.Submissions,
		assignments:  deps.Assignments,
		groups:       deps.Groups,
		converter:    deps.Converter,
		attemptLimit: DefaultAttemptLimit,
		batchSize:    MaxBatchSize,
		logger:       logging.NewNop(),
		observer:     nopObserver{},
		newRunID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "drain")
	return d, nil
}

// AttemptLimit returns the configured attempt limit.
func (d *Drainer) AttemptLimit() int {
	return d.attemptLimit
}

// BatchSize returns the effective batch size.
func (d *Drainer) BatchSize() int {
	return d.batchSize
}

// Drain processes one batch of queue entries. It returns an error only when
// the batch cannot be fetched or ctx is cancelled part way through.
func (d *Drainer) Drain(ctx context.Context) (summary Summary, err error) {
	started := time.Now()
	summary.RunID = d.newRunID()
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, d.logger)
	defer func() {
		d.observer.ObserveDrain(time.Since(started), err)
	}()

	entries, err := d.queue.FetchBatch(ctx, d.batchSize)
	if err != nil {
		logging.ErrorWithContext(logger, "fetch conversion batch failed", "drain_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the queue database"),
		)
		return summary, fmt.Errorf("fetch conversion batch: %w", err)
	}
	if len(entries) > d.batchSize {
		entries = entries[:d.batchSize]
	}
	summary.Fetched = len(entries)
	if len(entries) == 0 {
		logger.Debug("conversion queue empty")
		return summary, nil
	}

	// Assignment handles live only for this call.
	assignments := make(map[int64]*submission.Assignment)
	for _, entry := range entries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}
		entryCtx := logging.WithEntryID(ctx, entry.ID)
		outcome, users := d.processEntry(entryCtx, entry, assignments)
		for _, result := range users {
			summary.addUser(result)
			d.observer.ObserveUser(result.outcome.String(), result.code)
		}
		if outcome == EntryInterrupted {
			return summary, ctx.Err()
		}
		if outcome == entryDeleteFailed {
			summary.DeleteFailures++
			outcome = EntrySkipped
		}
		summary.addEntry(outcome)
		d.observer.ObserveEntry(outcome)
	}

	logger.Info("conversion drain finished",
		logging.Int("fetched", summary.Fetched),
		logging.Int("completed", summary.Completed),
		logging.Int("retained", summary.Retained),
		logging.Int("abandoned", summary.Abandoned),
		logging.Int("exhausted", summary.Exhausted),
		logging.Int("skipped", summary.Skipped),
		logging.Int("user_failures", summary.UserFailures),
		logging.Duration("duration", time.Since(started)),
	)
	return summary, nil
}

// entryDeleteFailed is internal; Drain reports it as a skipped entry.
const entryDeleteFailed = "delete_failed"

func (d *Drainer) processEntry(ctx context.Context, entry queue.Entry, assignments map[int64]*submission.Assignment) (string, []userResult) {
	logger := logging.WithContext(ctx, d.logger).With(
		logging.Int64(logging.FieldSubmissionID, entry.SubmissionID),
		logging.Int(logging.FieldAttempt, entry.SubmissionAttempt),
	)

	sub, err := d.submissions.SubmissionByID(ctx, entry.SubmissionID)
	if err != nil {
		logging.WarnWithContext(logger, "submission lookup failed; entry kept", "submission_lookup_failed",
			logging.Error(err),
		)
		return EntrySkipped, nil
	}
	if sub == nil {
		logger.Info("submission no longer exists; dropping queue entry")
		return d.remove(ctx, logger, entry, EntryAbandoned), nil
	}
	if entry.Exhausted(d.attemptLimit) {
		logger.Info("conversion attempts exhausted; dropping queue entry",
			logging.Int("attempted_conversions", entry.AttemptedConversions),
			logging.Int("attempt_limit", d.attemptLimit),
		)
		return d.remove(ctx, logger, entry, EntryExhausted), nil
	}

	// The attempt is recorded before any conversion work so a crash mid
	// conversion still counts against the limit.
	if err := d.queue.IncrementAttempt(ctx, entry.ID); err != nil {
		logging.WarnWithContext(logger, "recording conversion attempt failed; entry skipped", "attempt_increment_failed",
			logging.Error(err),
		)
		return EntrySkipped, nil
	}

	logger = logger.With(logging.Int64(logging.FieldAssignmentID, sub.AssignmentID))
	assignment, err := d.assignment(ctx, assignments, sub.AssignmentID)
	if err != nil {
		logging.WarnWithContext(logger, "assignment lookup failed; entry kept", "assignment_lookup_failed",
			logging.Error(err),
		)
		return EntrySkipped, nil
	}
	users, err := d.affectedUsers(ctx, sub)
	if err != nil {
		logging.WarnWithContext(logger, "group membership lookup failed; entry kept", "group_lookup_failed",
			logging.Error(err),
			logging.Int64("group_id", sub.GroupID),
		)
		return EntrySkipped, nil
	}

	logger.Info(fmt.Sprintf("convert %d submission attempt(s) for assignment %d", len(users), sub.AssignmentID))

	results := make([]userResult, 0, len(users))
	requiresPolling := false
	for _, userID := range users {
		if ctx.Err() != nil {
			return EntryInterrupted, results
		}
		result := d.convertUser(ctx, assignment, userID, entry.SubmissionAttempt)
		if result.outcome == userFailed && ctx.Err() != nil {
			return EntryInterrupted, results
		}
		results = append(results, result)
		d.logUserResult(logger, result)
		if result.outcome == userPolling {
			requiresPolling = true
		}
	}

	if requiresPolling {
		logger.Debug("combined document still being prepared; entry kept")
		return EntryRetained, results
	}
	return d.remove(ctx, logger, entry, EntryCompleted), results
}

// convertUser asks for the combined document and, once it is past the
// polling states, generates both page image sets.
func (d *Drainer) convertUser(ctx context.Context, assignment *submission.Assignment, userID int64, attempt int) userResult {
	status, err := d.converter.CombinedStatus(ctx, assignment, userID, attempt)
	if err != nil {
		return failedResult(userID, err)
	}
	if status.RequiresPolling() {
		return pollingResult(userID)
	}
	if err := d.converter.GeneratePageImages(ctx, assignment, userID, attempt, false); err != nil {
		return failedResult(userID, err)
	}
	if err := d.converter.GeneratePageImages(ctx, assignment, userID, attempt, true); err != nil {
		return failedResult(userID, err)
	}
	return convertedResult(userID)
}

func (d *Drainer) logUserResult(logger *slog.Logger, result userResult) {
	userLogger := logger.With(logging.Int64(logging.FieldUserID, result.userID))
	switch {
	case result.outcome != userFailed:
		userLogger.Debug("user conversion checked", logging.String("outcome", result.outcome.String()))
	case result.domain:
		logging.WarnWithContext(userLogger, "conversion failed", "conversion_failed",
			logging.String(logging.FieldErrorCode, result.code),
			logging.Error(result.err),
			logging.String(logging.FieldErrorHint, "the entry is retried until its attempts run out"),
		)
	default:
		logging.ErrorWithContext(userLogger, "conversion failed unexpectedly", "conversion_failed",
			logging.String(logging.FieldErrorCode, result.code),
			logging.Error(result.err),
			logging.String(logging.FieldErrorHint, "check converter availability"),
		)
	}
}

func (d *Drainer) assignment(ctx context.Context, cache map[int64]*submission.Assignment, id int64) (*submission.Assignment, error) {
	if cached, ok := cache[id]; ok {
		return cached, nil
	}
	assignment, err := d.assignments.AssignmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, fmt.Errorf("assignment %d: %w", id, submission.ErrNotFound)
	}
	cache[id] = assignment
	return assignment, nil
}

func (d *Drainer) affectedUsers(ctx context.Context, sub *submission.Submission) ([]int64, error) {
	if !sub.IsGroup() {
		return []int64{sub.UserID}, nil
	}
	return d.groups.ActiveMembers(ctx, sub.GroupID)
}

// remove deletes the entry. A failed delete leaves the entry for the next
// run, where it is re-evaluated.
func (d *Drainer) remove(ctx context.Context, logger *slog.Logger, entry queue.Entry, outcome string) string {
	if err := d.queue.Delete(ctx, entry.ID); err != nil {
		logging.ErrorWithContext(logger, "removing queue entry failed", "queue_delete_failed",
			logging.Error(err),
			logging.String("intended_outcome", outcome),
		)
		return entryDeleteFailed
	}
	return outcome
}
