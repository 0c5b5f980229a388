package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"editpdf/internal/logging"
	"editpdf/internal/metrics"
	"editpdf/internal/scheduler"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var drainNow bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drain the conversion queue on the configured schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduler(cmd.Context(), ctx, drainNow)
		},
	}
	cmd.Flags().BoolVar(&drainNow, "now", false, "Drain once immediately before waiting for the schedule")
	return cmd
}

func runScheduler(cmdCtx context.Context, ctx *commandContext, drainNow bool) error {
	if ctx == nil {
		return fmt.Errorf("command context is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, closeLog, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	s, err := ctx.openStores(signalCtx)
	if err != nil {
		logger.Error("open stores", logging.Error(err))
		return err
	}
	defer s.Close()

	recorder := metrics.New()
	drainer, err := newDrainer(cfg, s, logger, recorder)
	if err != nil {
		return err
	}
	sched, err := scheduler.New(drainer, cfg.Schedule.Cron, cfg.LockPath(), logger)
	if err != nil {
		return err
	}

	if drainNow {
		if _, err := sched.RunOnce(signalCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("initial drain: %w", err)
		}
	}

	if err := sched.Start(signalCtx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	metricsErr := make(chan error, 1)
	if cfg.Metrics.Bind != "" {
		go func() {
			metricsErr <- recorder.Serve(signalCtx, cfg.Metrics.Bind, logger)
		}()
	}

	select {
	case <-signalCtx.Done():
	case err := <-metricsErr:
		if err != nil {
			logging.ErrorWithContext(logger, "metrics endpoint failed", "metrics_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check metrics.bind"),
			)
			return fmt.Errorf("metrics endpoint: %w", err)
		}
		<-signalCtx.Done()
	}
	logger.Info("editpdf scheduler shutting down")
	return nil
}
