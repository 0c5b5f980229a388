package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"editpdf/internal/drain"
	"editpdf/internal/logging"
	"editpdf/internal/scheduler"
)

func newDrainCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Process one batch of the conversion queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, closeLog, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			defer closeLog()
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				drainer, err := newDrainer(cfg, s, logger, nil)
				if err != nil {
					return err
				}
				sched, err := scheduler.New(drainer, cfg.Schedule.Cron, cfg.LockPath(), logger)
				if err != nil {
					return err
				}
				summary, err := sched.RunOnce(cmd.Context())
				if errors.Is(err, scheduler.ErrLocked) {
					return fmt.Errorf("%w (lock %s)", err, cfg.LockPath())
				}
				if err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), summary)
				return nil
			})
		},
	}
}

func printSummary(out io.Writer, summary drain.Summary) {
	fmt.Fprintf(out, "Drain %s\n", summary.RunID)
	rows := [][]string{
		{titleLabel("fetched"), strconv.Itoa(summary.Fetched)},
		{titleLabel(drain.EntryCompleted), strconv.Itoa(summary.Completed)},
		{titleLabel(drain.EntryRetained), strconv.Itoa(summary.Retained)},
		{titleLabel(drain.EntryAbandoned), strconv.Itoa(summary.Abandoned)},
		{titleLabel(drain.EntryExhausted), strconv.Itoa(summary.Exhausted)},
		{titleLabel(drain.EntrySkipped), strconv.Itoa(summary.Skipped)},
		{titleLabel("users converted"), strconv.Itoa(summary.UsersConverted)},
		{titleLabel("users polling"), strconv.Itoa(summary.UsersPolling)},
		{titleLabel("user failures"), strconv.Itoa(summary.UserFailures)},
	}
	fmt.Fprintln(out, renderTable(out, []string{"Outcome", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}
