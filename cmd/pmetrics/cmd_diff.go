package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/report"
)

func (a *app) diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff FROM TO",
		Short: "Show a unified diff between two metrics snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.resolveArgs(args...)
			if err != nil {
				return err
			}
			from, err := report.LoadSnapshot(paths[0])
			if err != nil {
				return err
			}
			to, err := report.LoadSnapshot(paths[1])
			if err != nil {
				return err
			}
			diff, err := report.Diff(from, to, args[0], args[1])
			if err != nil {
				return err
			}
			if diff == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "snapshots are identical")
				return nil
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), diff)
			return err
		},
	}
}
