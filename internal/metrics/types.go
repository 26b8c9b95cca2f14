// Package metrics computes structural-complexity metrics over parsed planning
// problems and formula documents. Analyzers are read-only wrappers: every call
// recomputes its result from the model, so repeated calls agree exactly.
package metrics

import (
	"sort"

	"go.uber.org/zap"
)

// PlanningReport aggregates the metrics of a GroundingAnalyzer.
type PlanningReport struct {
	SupportsTemporalLogic bool    `json:"supports_temporal_logic" yaml:"supports_temporal_logic"`
	NumActions            int     `json:"num_actions" yaml:"num_actions"`
	HasDurativeActions    bool    `json:"has_durative_actions" yaml:"has_durative_actions"`
	HasFluents            bool    `json:"has_fluents" yaml:"has_fluents"`
	GroundOperators       int     `json:"ground_operators" yaml:"ground_operators"`
	BranchingFactor       float64 `json:"branching_factor" yaml:"branching_factor"`
	OperatorDensity       float64 `json:"operator_density" yaml:"operator_density"`
	EffectRatio           float64 `json:"effect_ratio" yaml:"effect_ratio"`
	EstimatedComplexity   float64 `json:"estimated_complexity" yaml:"estimated_complexity"`
}

// Values returns the report as a metric-name keyed map.
func (r PlanningReport) Values() map[string]any {
	return map[string]any{
		"supports_temporal_logic": r.SupportsTemporalLogic,
		"num_actions":             r.NumActions,
		"has_durative_actions":    r.HasDurativeActions,
		"has_fluents":             r.HasFluents,
		"ground_operators":        r.GroundOperators,
		"branching_factor":        r.BranchingFactor,
		"operator_density":        r.OperatorDensity,
		"effect_ratio":            r.EffectRatio,
		"estimated_complexity":    r.EstimatedComplexity,
	}
}

// FormulaReport aggregates the metrics of a FormulaAnalyzer.
type FormulaReport struct {
	Variables           int            `json:"variables" yaml:"variables"`
	Constraints         int            `json:"constraints" yaml:"constraints"`
	OperatorStatistics  map[string]int `json:"operator_statistics" yaml:"operator_statistics"`
	UniqueSymbols       int            `json:"unique_symbols" yaml:"unique_symbols"`
	UniqueRealConstants int            `json:"unique_real_constants" yaml:"unique_real_constants"`
	ASTDepth            int            `json:"ast_depth" yaml:"ast_depth"`
	EstimatedComplexity float64        `json:"estimated_complexity" yaml:"estimated_complexity"`
}

// Values returns the report as a metric-name keyed map. The histogram is
// copied so callers cannot mutate the report through it.
func (r FormulaReport) Values() map[string]any {
	stats := make(map[string]int, len(r.OperatorStatistics))
	for op, n := range r.OperatorStatistics {
		stats[op] = n
	}
	return map[string]any{
		"variables":             r.Variables,
		"constraints":           r.Constraints,
		"operator_statistics":   stats,
		"unique_symbols":        r.UniqueSymbols,
		"unique_real_constants": r.UniqueRealConstants,
		"ast_depth":             r.ASTDepth,
		"estimated_complexity":  r.EstimatedComplexity,
	}
}

// TotalOperators returns the sum of the operator histogram.
func (r FormulaReport) TotalOperators() int {
	return sumCounts(r.OperatorStatistics)
}

// SortedOperators returns the histogram keys in lexical order.
func (r FormulaReport) SortedOperators() []string {
	ops := make([]string, 0, len(r.OperatorStatistics))
	for op := range r.OperatorStatistics {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Option configures an analyzer.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger routes analyzer diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
