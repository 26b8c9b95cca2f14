package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/batch"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/notify"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/report"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/watch"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		domain, problem, smt string
		interval             time.Duration
		notifyFlag           bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis whenever an input file changes",
		Example: `  pmetrics watch -d domain.pddl -p problem.pddl
  pmetrics watch -s encoding.smt2 --interval 500ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (domain == "") != (problem == "") {
				return errors.New("--domain and --problem must be given together")
			}
			if domain == "" && smt == "" {
				return errors.New("watch needs --domain/--problem, --smt or both")
			}
			paths, err := a.resolveArgs(domain, problem, smt)
			if err != nil {
				return err
			}
			c := batch.Case{Name: "watch", Domain: paths[0], Problem: paths[1], SMT: paths[2]}

			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.Watch.Interval
			}
			w := &watch.Watcher{
				Paths:    nonEmpty(paths),
				Interval: interval,
				Logger:   a.logger.Named("watch"),
			}

			notifier := &notify.Notifier{Enabled: notifyFlag}
			var prev *report.Result

			analyze := func(ctx context.Context, changed []string) error {
				if len(changed) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "\nChanged: %s\n", strings.Join(baseNames(changed), ", "))
				}
				res := a.runner().Analyze(ctx, c)
				if err := a.emit(cmd, "watch", res, false); err != nil {
					return err
				}
				if res.Failed() {
					a.logger.Warn("analysis failed", zap.String("planning_error", res.PlanningError), zap.String("formula_error", res.FormulaError))
				}
				if title, message, ok := notify.Change(prev, res); ok {
					if err := notifier.Send(title, message); err != nil {
						a.logger.Warn("notification failed", zap.Error(err))
					}
				}
				prev = &res
				return nil
			}
			if _, err := w.Poll(); err != nil {
				return err
			}
			if err := analyze(cmd.Context(), nil); err != nil {
				return err
			}
			return w.Run(cmd.Context(), analyze)
		},
	}
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "PDDL domain file")
	cmd.Flags().StringVarP(&problem, "problem", "p", "", "PDDL problem file")
	cmd.Flags().StringVarP(&smt, "smt", "s", "", "SMT-LIB file")
	cmd.Flags().BoolVar(&notifyFlag, "notify", false, "Send a desktop notification when metrics change or loading fails")
	cmd.Flags().DurationVar(&interval, "interval", watch.DefaultInterval, "Polling interval (default: watch.interval)")
	return cmd
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
