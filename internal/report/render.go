package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. The empty string selects text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Render writes results in the given format. JSON and YAML emit a single
// result as an object and several as a list.
func Render(w io.Writer, format Format, results ...Result) error {
	switch format {
	case FormatText, "":
		for i, res := range results {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, Text(res)); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0])
		}
		return enc.Encode(results)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		if len(results) == 1 {
			return enc.Encode(results[0])
		}
		return enc.Encode(results)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Text renders a result in the line format of the analyze command.
func Text(res Result) string {
	var b strings.Builder
	if res.Domain != "" || res.Problem != "" {
		fmt.Fprintf(&b, "Domain file: %s\n", res.Domain)
		fmt.Fprintf(&b, "Problem file: %s\n", res.Problem)
	}
	if res.PlanningError != "" {
		fmt.Fprintf(&b, "Error loading the PDDL files: %s\n", res.PlanningError)
	}
	if p := res.Planning; p != nil {
		b.WriteString("PDDL Metrics:\n")
		fmt.Fprintf(&b, "Total Ground Operators: %d\n", p.GroundOperators)
		fmt.Fprintf(&b, "Average Branching Factor: %.2f\n", p.BranchingFactor)
		fmt.Fprintf(&b, "Operator Density: %.2f\n", p.OperatorDensity)
		fmt.Fprintf(&b, "Positive to Negative Effect Ratio: %.2f\n", p.EffectRatio)
		fmt.Fprintf(&b, "Estimated Planning Complexity: %.2f\n", p.EstimatedComplexity)
	}

	if res.SMT != "" {
		fmt.Fprintf(&b, "Analyzing SMT file: %s\n", res.SMT)
	}
	if res.FormulaError != "" {
		fmt.Fprintf(&b, "Error loading the SMT file: %s\n", res.FormulaError)
	}
	if f := res.Formula; f != nil {
		b.WriteString("SMT Metrics:\n")
		fmt.Fprintf(&b, "Free Variables: %d\n", f.Variables)
		fmt.Fprintf(&b, "Constraints: %d\n", f.Constraints)
		ops := f.SortedOperators()
		parts := make([]string, len(ops))
		for i, op := range ops {
			parts[i] = fmt.Sprintf("%s: %d", op, f.OperatorStatistics[op])
		}
		fmt.Fprintf(&b, "Operator Statistics (OS): {%s}\n", strings.Join(parts, ", "))
		fmt.Fprintf(&b, "(OS) Unique Symbols: %d\n", f.UniqueSymbols)
		fmt.Fprintf(&b, "(OS) unique_real_constants: %d\n", f.UniqueRealConstants)
		fmt.Fprintf(&b, "AST Depth: %d\n", f.ASTDepth)
		fmt.Fprintf(&b, "Estimated Complexity: %.2f\n", f.EstimatedComplexity)
	}
	return b.String()
}
