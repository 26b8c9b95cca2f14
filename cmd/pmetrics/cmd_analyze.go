package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/batch"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/history"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/report"
)

func (a *app) analyzeCmd() *cobra.Command {
	var domain, problem, smt string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report planning and formula metrics for a domain/problem pair and an optional SMT-LIB file",
		Long: `analyze loads a PDDL domain and problem and, when given, an SMT-LIB file.
A side that fails to load is reported as an error line and the other side is
still analyzed.`,
		Example: "  pmetrics analyze -d domain.pddl -p problem.pddl -s encoding.smt2",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.resolveArgs(domain, problem, smt)
			if err != nil {
				return err
			}
			c := batch.Case{Name: "analyze", Domain: paths[0], Problem: paths[1], SMT: paths[2]}
			res := a.runner().Analyze(cmd.Context(), c)
			return a.emit(cmd, "analyze", res, false)
		},
	}
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "PDDL domain file (required)")
	cmd.Flags().StringVarP(&problem, "problem", "p", "", "PDDL problem file (required)")
	cmd.Flags().StringVarP(&smt, "smt", "s", "", "SMT-LIB file")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("problem")
	return cmd
}

func (a *app) pddlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pddl DOMAIN PROBLEM",
		Short: "Report planning metrics for a domain/problem pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.resolveArgs(args...)
			if err != nil {
				return err
			}
			c := batch.Case{Name: "pddl", Domain: paths[0], Problem: paths[1]}
			res := a.runner().Analyze(cmd.Context(), c)
			return a.emit(cmd, "pddl", res, true)
		},
	}
}

func (a *app) smtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "smt FILE",
		Short: "Report formula metrics for an SMT-LIB file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.resolveArgs(args...)
			if err != nil {
				return err
			}
			res := a.runner().Analyze(cmd.Context(), batch.Case{Name: "smt", SMT: paths[0]})
			return a.emit(cmd, "smt", res, true)
		},
	}
}

// emit renders res, writes the optional snapshot and records the run. With
// strict set a load failure becomes the command's error.
func (a *app) emit(cmd *cobra.Command, command string, res report.Result, strict bool) error {
	if err := report.Render(cmd.OutOrStdout(), a.outputFormat(), res); err != nil {
		return err
	}
	if a.outputPath != "" {
		path, err := a.ws.ResolvePath(a.outputPath)
		if err != nil {
			return fmt.Errorf("resolve --output: %w", err)
		}
		if err := report.WriteSnapshot(path, report.NewSnapshot(res, time.Now())); err != nil {
			return err
		}
		a.logger.Info("snapshot written", zap.String("path", path))
	}
	a.record(cmd.Context(), command, res)

	if strict && res.Failed() {
		return errors.New(firstNonEmpty(res.PlanningError, res.FormulaError))
	}
	return nil
}

// record stores results in the history database. Failures are logged and do
// not fail the command.
func (a *app) record(ctx context.Context, command string, results ...report.Result) {
	if !a.historyEnabled() {
		return
	}
	path, err := a.ws.StatePath(a.cfg.History.Path)
	if err != nil {
		a.logger.Warn("history path invalid", zap.Error(err))
		return
	}
	store, err := history.Open(path, a.logger.Named("history"))
	if err != nil {
		a.logger.Warn("history unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	for _, res := range results {
		id, err := store.Record(ctx, history.Run{
			Command: command,
			Inputs:  inputsOf(res),
			Result:  res,
		})
		if err != nil {
			a.logger.Warn("history record failed", zap.Error(err))
			return
		}
		a.logger.Debug("run recorded", zap.String("id", id))
	}
}

func (a *app) historyEnabled() bool {
	return a.cfg.History.Enabled && !a.noHistory
}

func inputsOf(res report.Result) []string {
	var inputs []string
	for _, in := range []string{res.Domain, res.Problem, res.SMT} {
		if in != "" {
			inputs = append(inputs, in)
		}
	}
	return inputs
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
