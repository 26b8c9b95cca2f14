package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/batch"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/config"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/pddl"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/report"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/smtlib"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/workspace"
)

const appName = "pmetrics"

// app holds the state shared by every subcommand once the root command's
// pre-run has resolved it.
type app struct {
	workspaceRoot string
	configPath    string
	format        string
	outputPath    string
	verbose       bool
	noHistory     bool

	ws     *workspace.Workspace
	cfg    config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   appName,
		Short: "Structural complexity metrics for PDDL planning tasks and SMT-LIB formulas",
		Long: `pmetrics estimates how hard a planning task or an SMT formula is by
measuring its structure: ground operator counts, branching, effect balance,
free variables, operator statistics and AST depth.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.workspaceRoot, "workspace", "w", ".", "Workspace root (holds .pmetrics/)")
	flags.StringVar(&a.configPath, "config", "", "Config file (default: <workspace>/.pmetrics/config.yml)")
	flags.StringVarP(&a.format, "format", "f", "", "Output format: text, json or yaml")
	flags.StringVarP(&a.outputPath, "output", "o", "", "Write a metrics snapshot to this path")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&a.noHistory, "no-history", false, "Do not record this run in the history database")

	root.AddCommand(
		a.analyzeCmd(),
		a.pddlCmd(),
		a.smtCmd(),
		a.batchCmd(),
		a.diffCmd(),
		a.historyCmd(),
		a.watchCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	ws, err := workspace.Resolve(a.workspaceRoot)
	if err != nil {
		return err
	}
	a.ws = ws

	configPath := ws.ConfigPath
	if a.configPath != "" {
		configPath, err = ws.ResolvePath(a.configPath)
		if err != nil {
			return fmt.Errorf("resolve --config: %w", err)
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if a.format != "" {
		cfg.Output.Format = a.format
	}
	if _, err := report.ParseFormat(cfg.Output.Format); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := buildLogger(cfg.Log.Level, a.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	logger.Debug("configuration loaded",
		zap.String("workspace", ws.Root),
		zap.String("config", configPath),
		zap.String("format", cfg.Output.Format),
		zap.Bool("history", a.historyEnabled()),
	)
	return nil
}

func buildLogger(level string, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func (a *app) outputFormat() report.Format {
	f, _ := report.ParseFormat(a.cfg.Output.Format)
	return f
}

func (a *app) pddlReader() *pddl.Reader {
	return &pddl.Reader{
		NormalizeUmlauts: a.cfg.PDDL.NormalizeUmlauts,
		Logger:           a.logger.Named("pddl"),
	}
}

func (a *app) smtReader() *smtlib.Reader {
	return &smtlib.Reader{Logger: a.logger.Named("smt")}
}

func (a *app) runner() *batch.Runner {
	return &batch.Runner{
		Concurrency: a.cfg.Batch.Concurrency,
		PDDL:        a.pddlReader(),
		SMT:         a.smtReader(),
		Logger:      a.logger.Named("batch"),
	}
}

// resolveArgs resolves file arguments against the workspace root.
func (a *app) resolveArgs(paths ...string) ([]string, error) {
	out := make([]string, len(paths))
	for i, p := range paths {
		resolved, err := a.ws.ResolvePath(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		out[i] = resolved
	}
	return out, nil
}
