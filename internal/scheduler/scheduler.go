package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"editpdf/internal/config"
	"editpdf/internal/drain"
	"editpdf/internal/logging"
)

// ErrLocked reports that another process is already draining.
var ErrLocked = errors.New("another drain is already running")

// Runner performs one drain.
type Runner interface {
	Drain(ctx context.Context) (drain.Summary, error)
}

// Scheduler invokes a Runner on a cron schedule.
type Scheduler struct {
	runner   Runner
	spec     string
	schedule cron.Schedule
	lockPath string
	logger   *slog.Logger

	mu      sync.Mutex
	lock    *flock.Flock
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

// New validates spec and returns a stopped scheduler.
func New(runner Runner, spec, lockPath string, logger *slog.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("scheduler requires a runner")
	}
	if lockPath == "" {
		return nil, errors.New("scheduler requires a lock path")
	}
	schedule, err := config.CronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &Scheduler{
		runner:   runner,
		spec:     spec,
		schedule: schedule,
		lockPath: lockPath,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
	}, nil
}

// Next returns the next time the schedule fires after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// RunOnce performs a single drain under the drain lock. It fails fast with
// ErrLocked when another process holds the lock.
func (s *Scheduler) RunOnce(ctx context.Context) (drain.Summary, error) {
	lock := flock.New(s.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return drain.Summary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return drain.Summary{}, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release drain lock", logging.Error(err))
		}
	}()
	return s.runner.Drain(ctx)
}

// Start acquires the drain lock and begins firing drains on schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}

	lock := flock.New(s.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(
		cron.WithParser(config.CronParser),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: s.logger})),
	)
	if _, err := c.AddFunc(s.spec, func() { s.tick(runCtx) }); err != nil {
		cancel()
		_ = lock.Unlock()
		return fmt.Errorf("register schedule: %w", err)
	}
	c.Start()

	s.lock = lock
	s.cron = c
	s.cancel = cancel
	s.running = true
	s.logger.Info("drain scheduler started",
		logging.String("schedule", s.spec),
		logging.String("lock", s.lockPath),
		logging.String("next_run", s.Next(time.Now()).Format(time.RFC3339)),
	)
	return nil
}

// Stop cancels any in-flight drain, waits for it to return, and releases the lock.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release drain lock", logging.Error(err))
	}
	s.cron = nil
	s.cancel = nil
	s.lock = nil
	s.running = false
	s.logger.Info("drain scheduler stopped")
}

// Running reports whether the scheduler is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	summary, err := s.runner.Drain(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Info("scheduled drain interrupted", logging.String(logging.FieldRunID, summary.RunID))
			return
		}
		logging.ErrorWithContext(s.logger, "scheduled drain failed", "scheduled_drain_failed",
			logging.String(logging.FieldRunID, summary.RunID),
			logging.Error(err),
		)
		return
	}
	s.logger.Debug("scheduled drain complete",
		logging.String(logging.FieldRunID, summary.RunID),
		logging.Int("processed", summary.Processed()),
	)
}

// cronLogger routes cron's own messages through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{logging.Error(err)}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
