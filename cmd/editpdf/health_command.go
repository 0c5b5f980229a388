package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"editpdf/internal/preflight"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check directories, queue database, and converter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				state := "ok"
				if !r.Passed {
					state = "failed"
				}
				rows = append(rows, []string{r.Name, titleLabel(state), r.Detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Check", "State", "Detail"}, rows, nil))
			if !preflight.AllPassed(results) {
				return errors.New("one or more health checks failed")
			}
			return nil
		},
	}
}
