package metrics

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/planning"
)

// minFactor floors every factor of the planning complexity score so its
// logarithm is always defined.
const minFactor = 0.1

// GroundingAnalyzer measures the ground instantiation space of a planning
// problem.
type GroundingAnalyzer struct {
	problem *planning.Problem
	logger  *zap.Logger
}

// NewGroundingAnalyzer wraps problem. The problem must not be mutated while
// the analyzer is in use.
func NewGroundingAnalyzer(problem *planning.Problem, opts ...Option) (*GroundingAnalyzer, error) {
	if problem == nil {
		return nil, errors.New("planning problem is required")
	}
	o := buildOptions(opts)
	o.logger.Debug("grounding analyzer initialized",
		zap.String("problem", problem.Name),
		zap.String("domain", problem.Domain),
		zap.Int("operators", len(problem.Operators)),
		zap.Int("objects", len(problem.Objects)),
		zap.Any("features", problem.Features),
	)
	return &GroundingAnalyzer{problem: problem, logger: o.logger}, nil
}

// Problem returns the analyzed problem.
func (a *GroundingAnalyzer) Problem() *planning.Problem {
	return a.problem
}

// CountActions returns the number of operator schemas.
func (a *GroundingAnalyzer) CountActions() int {
	return len(a.problem.Operators)
}

// SupportsTemporalLogic reports whether the problem uses time in any form.
func (a *GroundingAnalyzer) SupportsTemporalLogic() bool {
	f := a.problem.Features
	return f.ContinuousTime || f.TimedEffects || f.TimedGoals
}

// HasDurativeActions reports whether any schema is durative.
func (a *GroundingAnalyzer) HasDurativeActions() bool {
	return a.problem.Features.ContinuousTime
}

// HasFluents reports whether the problem has numeric, object or boolean fluents.
func (a *GroundingAnalyzer) HasFluents() bool {
	f := a.problem.Features
	if f.NumericFluents || f.ObjectFluents || f.IntFluents || f.RealFluents {
		return true
	}
	for _, fl := range a.problem.Fluents {
		if fl.Kind == planning.FluentBool {
			return true
		}
	}
	return false
}

// CountGroundOperators sums, over all schemas, the number of parameter
// bindings. A parameter whose type has no objects counts as one slot, so every
// schema contributes at least 1. The sum saturates at math.MaxInt.
func (a *GroundingAnalyzer) CountGroundOperators() int {
	total := 0
	for _, op := range a.problem.Operators {
		combinations := 1
		for _, param := range op.Parameters {
			n := len(a.problem.ObjectsOfType(param.Type))
			combinations = mulSat(combinations, max(1, n))
		}
		total = addSat(total, combinations)
	}
	return total
}

// BranchingFactor is the mean number of ground operators per schema, or 1
// for a domain without schemas.
func (a *GroundingAnalyzer) BranchingFactor() float64 {
	return a.branchingFactor(a.CountGroundOperators())
}

func (a *GroundingAnalyzer) branchingFactor(ground int) float64 {
	schemas := len(a.problem.Operators)
	if schemas == 0 {
		return 1
	}
	return float64(ground) / float64(schemas)
}

// OperatorDensity is the number of ground operators per object, or 1 for a
// problem without objects.
func (a *GroundingAnalyzer) OperatorDensity() float64 {
	return a.operatorDensity(a.CountGroundOperators())
}

func (a *GroundingAnalyzer) operatorDensity(ground int) float64 {
	objects := len(a.problem.Objects)
	if objects == 0 {
		return 1
	}
	return float64(ground) / float64(objects)
}

// EffectRatio is the ratio of positive to negative effects over every effect
// of every schema, all timings included. Boolean true and numeric constants
// above zero are positive; boolean false and constants at or below zero are
// negative; computed values count for neither. The negative count is floored
// at 1 and the ratio at 0.1.
func (a *GroundingAnalyzer) EffectRatio() float64 {
	pos, neg := 0, 0
	for _, op := range a.problem.Operators {
		for _, eff := range op.Effects {
			switch polarity(eff.Value) {
			case 1:
				pos++
			case -1:
				neg++
			}
		}
	}
	return math.Max(minFactor, float64(pos)/float64(max(1, neg)))
}

func polarity(v planning.Value) int {
	switch v.Kind {
	case planning.ValueBool:
		if v.Bool {
			return 1
		}
		return -1
	case planning.ValueNumber:
		if v.Number != nil && v.Number.Sign() > 0 {
			return 1
		}
		return -1
	default:
		return 0
	}
}

// EstimatedComplexity is log2 of the product of the ground operator count,
// the branching factor and the effect ratio, each floored at 0.1.
func (a *GroundingAnalyzer) EstimatedComplexity() float64 {
	ground := a.CountGroundOperators()
	return planningComplexity(ground, a.branchingFactor(ground), a.EffectRatio())
}

func planningComplexity(ground int, branching, effectRatio float64) float64 {
	return math.Log2(math.Max(minFactor, float64(ground)) *
		math.Max(minFactor, branching) *
		math.Max(minFactor, effectRatio))
}

// Metrics computes every planning metric.
func (a *GroundingAnalyzer) Metrics() PlanningReport {
	ground := a.CountGroundOperators()
	branching := a.branchingFactor(ground)
	ratio := a.EffectRatio()

	report := PlanningReport{
		SupportsTemporalLogic: a.SupportsTemporalLogic(),
		NumActions:            a.CountActions(),
		HasDurativeActions:    a.HasDurativeActions(),
		HasFluents:            a.HasFluents(),
		GroundOperators:       ground,
		BranchingFactor:       branching,
		OperatorDensity:       a.operatorDensity(ground),
		EffectRatio:           ratio,
		EstimatedComplexity:   planningComplexity(ground, branching, ratio),
	}
	a.logger.Debug("planning metrics computed",
		zap.String("problem", a.problem.Name),
		zap.Int("ground_operators", report.GroundOperators),
		zap.Float64("estimated_complexity", report.EstimatedComplexity),
	)
	return report
}

func mulSat(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}

func addSat(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
