package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/metrics"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/pddl"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/report"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/smtlib"
)

// Runner loads and analyzes cases. Domains are parsed once per path and shared
// by every problem that names them.
type Runner struct {
	Concurrency int
	PDDL        *pddl.Reader
	SMT         *smtlib.Reader
	Logger      *zap.Logger

	group       singleflight.Group
	mu          sync.Mutex
	domains     map[string]*pddl.Domain
	domainLoads atomic.Int64
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// DomainLoads returns how many domain files were actually parsed.
func (r *Runner) DomainLoads() int {
	return int(r.domainLoads.Load())
}

// Run analyzes cases concurrently and returns their results in input order.
// Load failures are recorded on each result and combined into the returned
// error; a cancelled context stops scheduling and is returned as is.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]report.Result, error) {
	results := make([]report.Result, len(cases))
	limit := r.Concurrency
	if limit < 1 {
		limit = 1
	}

	var (
		errMu sync.Mutex
		errs  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, c := range cases {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.Analyze(gctx, c)
			results[i] = res
			if res.Failed() {
				errMu.Lock()
				if res.PlanningError != "" {
					errs = multierr.Append(errs, fmt.Errorf("case %s: %s", c.Name, res.PlanningError))
				}
				if res.FormulaError != "" {
					errs = multierr.Append(errs, fmt.Errorf("case %s: %s", c.Name, res.FormulaError))
				}
				errMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	r.logger().Info("batch finished",
		zap.Int("cases", len(cases)),
		zap.Int("failures", len(multierr.Errors(errs))),
		zap.Int("domains_parsed", r.DomainLoads()),
	)
	return results, errs
}

// Analyze runs the planning and formula analyses a case asks for. Each side
// fails independently.
func (r *Runner) Analyze(ctx context.Context, c Case) report.Result {
	res := report.Result{Domain: c.Domain, Problem: c.Problem, SMT: c.SMT}
	log := r.logger().With(zap.String("case", c.Name))

	if c.Domain != "" || c.Problem != "" {
		rep, err := r.analyzePlanning(c, log)
		if err != nil {
			log.Error("error loading the PDDL files", zap.Error(err))
			res.PlanningError = err.Error()
		} else {
			res.Planning = &rep
		}
	}

	if c.SMT != "" && ctx.Err() == nil {
		rep, err := r.analyzeFormula(c, log)
		if err != nil {
			log.Error("error loading the SMT file", zap.Error(err))
			res.FormulaError = err.Error()
		} else {
			res.Formula = &rep
		}
	}
	return res
}

func (r *Runner) analyzePlanning(c Case, log *zap.Logger) (metrics.PlanningReport, error) {
	domain, err := r.domain(c.Domain)
	if err != nil {
		return metrics.PlanningReport{}, err
	}
	problem, err := r.PDDL.LoadProblem(domain, c.Problem)
	if err != nil {
		return metrics.PlanningReport{}, err
	}
	a, err := metrics.NewGroundingAnalyzer(problem, metrics.WithLogger(log.Named("grounding")))
	if err != nil {
		return metrics.PlanningReport{}, err
	}
	return a.Metrics(), nil
}

func (r *Runner) analyzeFormula(c Case, log *zap.Logger) (metrics.FormulaReport, error) {
	doc, err := r.SMT.LoadFile(c.SMT)
	if err != nil {
		return metrics.FormulaReport{}, err
	}
	a, err := metrics.NewFormulaAnalyzer(doc, metrics.WithLogger(log.Named("formula")))
	if err != nil {
		return metrics.FormulaReport{}, err
	}
	return a.Metrics(), nil
}

func (r *Runner) domain(path string) (*pddl.Domain, error) {
	r.mu.Lock()
	if d, ok := r.domains[path]; ok {
		r.mu.Unlock()
		return d, nil
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(path, func() (any, error) {
		r.mu.Lock()
		d, ok := r.domains[path]
		r.mu.Unlock()
		if ok {
			return d, nil
		}
		r.domainLoads.Add(1)
		d, err := r.PDDL.LoadDomain(path)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if r.domains == nil {
			r.domains = make(map[string]*pddl.Domain)
		}
		r.domains[path] = d
		r.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pddl.Domain), nil
}
