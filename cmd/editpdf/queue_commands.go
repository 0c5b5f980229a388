package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"editpdf/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the conversion queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				stats, err := s.queue.Stats(cmd.Context(), cfg.Conversion.AttemptLimit)
				if err != nil {
					return err
				}
				if stats.Total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := [][]string{
					{titleLabel("fresh"), strconv.Itoa(stats.Fresh)},
					{titleLabel("retrying"), strconv.Itoa(stats.Retrying)},
					{titleLabel("exhausted"), strconv.Itoa(stats.Exhausted)},
					{titleLabel("total"), strconv.Itoa(stats.Total)},
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, []string{"State", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queue entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				entries, err := s.queue.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				out := cmd.OutOrStdout()
				table := renderTable(
					out,
					[]string{"ID", "Submission", "Attempt", "Tries", "Exhausted", "Created"},
					buildQueueListRows(entries, cfg.Conversion.AttemptLimit),
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}
}

func buildQueueListRows(entries []queue.Entry, attemptLimit int) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(entry.ID, 10),
			strconv.FormatInt(entry.SubmissionID, 10),
			strconv.Itoa(entry.SubmissionAttempt),
			fmt.Sprintf("%d/%d", entry.AttemptedConversions, attemptLimit),
			yesNo(entry.Exhausted(attemptLimit)),
			entry.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <submission-id> [attempt]",
		Short: "Queue a submission attempt for conversion",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			submissionID, err := parseID(args[0])
			if err != nil {
				return err
			}
			attempt := 0
			if len(args) == 2 {
				attempt, err = strconv.Atoi(strings.TrimSpace(args[1]))
				if err != nil || attempt < 0 {
					return fmt.Errorf("invalid attempt %q", args[1])
				}
			}
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				entry, err := s.queue.Enqueue(cmd.Context(), submissionID, attempt)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued submission %d attempt %d as entry %d\n", entry.SubmissionID, entry.SubmissionAttempt, entry.ID)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove queue entries by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				out := cmd.OutOrStdout()
				for _, id := range ids {
					removed, err := s.queue.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Removed entry %d\n", id)
					} else {
						fmt.Fprintf(out, "Entry %d not found\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var exhaustedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStores(cmd.Context(), func(s *stores) error {
				var removed int64
				if exhaustedOnly {
					removed, err = s.queue.ClearExhausted(cmd.Context(), cfg.Conversion.AttemptLimit)
				} else {
					removed, err = s.queue.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&exhaustedOnly, "exhausted", false, "Only remove entries that have used up their attempts")
	return cmd
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}
