package metrics

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/formula"
)

// FormulaAnalyzer computes frequency, uniqueness and shape statistics over
// formula DAGs.
//
// Counts that describe the written formula (operator statistics, depth) treat
// a shared node once per path that reaches it. Counts that describe the
// vocabulary (variables, symbols, real constants) treat it once.
type FormulaAnalyzer struct {
	roots       []*formula.Node
	constraints int
	logger      *zap.Logger
}

// NewFormulaAnalyzer analyzes every assertion of doc. Each assertion is one
// constraint.
func NewFormulaAnalyzer(doc *formula.Document, opts ...Option) (*FormulaAnalyzer, error) {
	if doc == nil {
		return nil, errors.New("formula document is required")
	}
	roots := make([]*formula.Node, 0, len(doc.Assertions))
	for _, a := range doc.Assertions {
		if a != nil {
			roots = append(roots, a)
		}
	}
	return newFormulaAnalyzer(roots, len(roots), buildOptions(opts)), nil
}

// NewFormulaAnalyzerForFormula analyzes a single formula. When root is a
// conjunction, each direct conjunct is one constraint; otherwise the formula
// is a single constraint.
func NewFormulaAnalyzerForFormula(root *formula.Node, opts ...Option) (*FormulaAnalyzer, error) {
	if root == nil {
		return nil, errors.New("formula is required")
	}
	constraints := 1
	if root.IsAnd() {
		constraints = len(root.Children)
	}
	return newFormulaAnalyzer([]*formula.Node{root}, constraints, buildOptions(opts)), nil
}

func newFormulaAnalyzer(roots []*formula.Node, constraints int, o options) *FormulaAnalyzer {
	o.logger.Debug("formula analyzer initialized",
		zap.Int("formulas", len(roots)),
		zap.Int("constraints", constraints),
	)
	return &FormulaAnalyzer{roots: roots, constraints: constraints, logger: o.logger}
}

// CountVariables returns the number of distinct free variables across all
// formulas.
func (a *FormulaAnalyzer) CountVariables() int {
	all := make(map[*formula.Node]struct{})
	for _, root := range a.roots {
		for v := range freeSymbols(postOrder(root)) {
			all[v] = struct{}{}
		}
	}
	return len(all)
}

// CountConstraints returns the number of constraints.
func (a *FormulaAnalyzer) CountConstraints() int {
	return a.constraints
}

// OperatorStatistics returns how often each operator symbol is written
// across all formulas. A sub-expression shared by two parents counts twice.
func (a *FormulaAnalyzer) OperatorStatistics() map[string]int {
	stats := make(map[string]int)
	for _, root := range a.roots {
		order := postOrder(root)
		counts := pathCounts(order)
		for _, n := range order {
			if n.Kind != formula.KindOperator {
				continue
			}
			stats[n.Op] = addSat(stats[n.Op], counts[n])
		}
	}
	return stats
}

// CountUniqueSymbols returns the number of distinct symbol names.
func (a *FormulaAnalyzer) CountUniqueSymbols() int {
	names := make(map[string]struct{})
	walkUnique(a.roots, func(n *formula.Node) {
		if n.Kind == formula.KindSymbol {
			names[n.Name] = struct{}{}
		}
	})
	return len(names)
}

// CountUniqueRealConstants returns the number of distinct real-valued
// literals, compared by value.
func (a *FormulaAnalyzer) CountUniqueRealConstants() int {
	values := make(map[string]struct{})
	walkUnique(a.roots, func(n *formula.Node) {
		if n.IsRealConstant() {
			values[n.Value] = struct{}{}
		}
	})
	return len(values)
}

// ASTDepth returns the deepest formula's depth, or 0 without formulas.
func (a *FormulaAnalyzer) ASTDepth() int {
	deepest := 0
	for _, root := range a.roots {
		deepest = max(deepest, depth(postOrder(root)))
	}
	return deepest
}

// EstimatedComplexity is log2(variables * constraints * operators * depth),
// or 0 when that product is not positive.
func (a *FormulaAnalyzer) EstimatedComplexity() float64 {
	return formulaComplexity(a.CountVariables(), a.CountConstraints(), sumCounts(a.OperatorStatistics()), a.ASTDepth())
}

func formulaComplexity(variables, constraints, operators, depth int) float64 {
	product := float64(variables) * float64(constraints) * float64(operators) * float64(depth)
	if product <= 0 {
		return 0
	}
	return math.Log2(product)
}

// Metrics computes every formula metric.
func (a *FormulaAnalyzer) Metrics() FormulaReport {
	stats := a.OperatorStatistics()
	report := FormulaReport{
		Variables:           a.CountVariables(),
		Constraints:         a.CountConstraints(),
		OperatorStatistics:  stats,
		UniqueSymbols:       a.CountUniqueSymbols(),
		UniqueRealConstants: a.CountUniqueRealConstants(),
		ASTDepth:            a.ASTDepth(),
	}
	report.EstimatedComplexity = formulaComplexity(report.Variables, report.Constraints, sumCounts(stats), report.ASTDepth)
	a.logger.Debug("formula metrics computed",
		zap.Int("variables", report.Variables),
		zap.Int("constraints", report.Constraints),
		zap.Int("ast_depth", report.ASTDepth),
		zap.Float64("estimated_complexity", report.EstimatedComplexity),
	)
	return report
}

func sumCounts(stats map[string]int) int {
	total := 0
	for _, n := range stats {
		total = addSat(total, n)
	}
	return total
}
