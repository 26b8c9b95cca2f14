// Package report renders analysis results and keeps comparable snapshots of
// them.
package report

import (
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/metrics"
)

// Result is the outcome of one analysis run. A side that failed to load has a
// nil report and a non-empty error.
type Result struct {
	Domain   string                  `json:"domain,omitempty" yaml:"domain,omitempty"`
	Problem  string                  `json:"problem,omitempty" yaml:"problem,omitempty"`
	SMT      string                  `json:"smt,omitempty" yaml:"smt,omitempty"`
	Planning *metrics.PlanningReport `json:"planning,omitempty" yaml:"planning,omitempty"`
	Formula  *metrics.FormulaReport  `json:"formula,omitempty" yaml:"formula,omitempty"`

	PlanningError string `json:"planning_error,omitempty" yaml:"planning_error,omitempty"`
	FormulaError  string `json:"formula_error,omitempty" yaml:"formula_error,omitempty"`
}

// Failed reports whether any requested analysis could not be loaded.
func (r Result) Failed() bool {
	return r.PlanningError != "" || r.FormulaError != ""
}

const (
	planningPrefix = "planning."
	formulaPrefix  = "formula."
	operatorKey    = formulaPrefix + "operator_statistics"
)

// Points flattens the reports into canonical metric points. Booleans become
// 0 or 1; each histogram entry becomes one point with an operator dimension.
func (r Result) Points() []MetricPoint {
	var points []MetricPoint
	if r.Planning != nil {
		source := r.Problem
		for key, v := range r.Planning.Values() {
			points = append(points, MetricPoint{Key: planningPrefix + key, Value: toFloat(v), Source: source})
		}
	}
	if r.Formula != nil {
		source := r.SMT
		for key, v := range r.Formula.Values() {
			if key == "operator_statistics" {
				continue
			}
			points = append(points, MetricPoint{Key: formulaPrefix + key, Value: toFloat(v), Source: source})
		}
		for op, n := range r.Formula.OperatorStatistics {
			points = append(points, MetricPoint{
				Key:        operatorKey,
				Value:      float64(n),
				Unit:       "count",
				Source:     source,
				Dimensions: []Dimension{{Key: "operator", Value: op}},
			})
		}
	}
	return CanonicalizePoints(points)
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case int:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
}
