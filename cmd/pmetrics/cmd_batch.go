package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/batch"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/report"
)

func (a *app) batchCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "batch MANIFEST",
		Short: "Analyze every case listed in a YAML manifest",
		Long: `batch runs the cases of a manifest concurrently. Each domain file is parsed
once and shared by every problem that names it. Paths in the manifest are
relative to the manifest's directory.

  cases:
    - name: gripper-p01
      domain: gripper/domain.pddl
      problem: gripper/p01.pddl
      smt: gripper/p01.smt2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.outputPath != "" {
				return errors.New("--output applies to single analyses, not batch runs")
			}
			paths, err := a.resolveArgs(args[0])
			if err != nil {
				return err
			}
			manifest, err := batch.LoadManifest(paths[0])
			if err != nil {
				return err
			}

			runner := a.runner()
			if cmd.Flags().Changed("concurrency") {
				if concurrency < 1 {
					return fmt.Errorf("--concurrency must be at least 1, got %d", concurrency)
				}
				runner.Concurrency = concurrency
			}
			results, runErr := runner.Run(cmd.Context(), manifest.Cases)
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if err := report.Render(cmd.OutOrStdout(), a.outputFormat(), results...); err != nil {
				return err
			}
			a.record(cmd.Context(), "batch", results...)

			if runErr != nil {
				for _, err := range multierr.Errors(runErr) {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
				return fmt.Errorf("%d of %d cases failed to load", countFailed(results), len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Cases analyzed in parallel (default: batch.concurrency)")
	return cmd
}

func countFailed(results []report.Result) int {
	n := 0
	for _, res := range results {
		if res.Failed() {
			n++
		}
	}
	return n
}
