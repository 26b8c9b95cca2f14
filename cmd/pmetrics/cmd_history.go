package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/history"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/report"
)

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded analysis runs",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			switch a.outputFormat() {
			case report.FormatJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			case report.FormatYAML:
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				defer enc.Close()
				return enc.Encode(runs)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tCOMMAND\tSTATUS\tINPUTS")
			for _, run := range runs {
				status := "ok"
				if run.Result.Failed() {
					status = "failed"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					run.ID, run.CreatedAt.Local().Format(time.DateTime), run.Command, status, strings.Join(run.Inputs, " "))
			}
			return w.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs (0 for all)")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show the metrics of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if a.outputFormat() == report.FormatText {
				fmt.Fprintf(cmd.OutOrStdout(), "Run %s (%s, %s)\n\n",
					run.ID, run.Command, run.CreatedAt.Local().Format(time.DateTime))
			}
			return report.Render(cmd.OutOrStdout(), a.outputFormat(), run.Result)
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func (a *app) openHistory() (*history.Store, error) {
	path, err := a.ws.StatePath(a.cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve history path: %w", err)
	}
	return history.Open(path, a.logger.Named("history"))
}
