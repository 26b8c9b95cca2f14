package pddl

import (
	"fmt"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/planning"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/sexpr"
)

// timedConstraints are the PDDL3 constraint forms that carry deadlines.
var timedConstraints = map[string]bool{
	"within":        true,
	"always-within": true,
	"hold-during":   true,
	"hold-after":    true,
}

// ParseProblem parses problem text against a parsed domain and returns the
// combined planning model.
func ParseProblem(domain *Domain, data []byte) (*planning.Problem, error) {
	if domain == nil {
		return nil, fmt.Errorf("parse problem: domain is nil")
	}
	body, err := parseDefine(data, "problem")
	if err != nil {
		return nil, err
	}

	var (
		objects  []planning.Object
		features planning.Features
	)
	for _, section := range body.sections {
		args := section.Args()
		switch section.Head() {
		case ":domain":
			if len(args) != 1 || !args[0].IsAtom() {
				return nil, sexpr.Errorf(section, "expected (:domain <name>)")
			}
			if args[0].Text != domain.Name {
				return nil, sexpr.Errorf(args[0], "problem %s is for domain %q, not %q", body.name, args[0].Text, domain.Name)
			}
		case ":objects":
			parsed, err := domain.parseObjects(args)
			if err != nil {
				return nil, err
			}
			objects = append(objects, parsed...)
		case ":init":
			for _, fact := range args {
				if isTimedLiteral(fact) {
					features.TimedEffects = true
				}
			}
		case ":goal":
			for _, goal := range args {
				scanCondition(goal, &features)
			}
		case ":constraints":
			scanConstraints(args, &features)
		case ":requirements", ":metric":
		default:
			return nil, sexpr.Errorf(section, "unsupported problem section %q", section.Head())
		}
	}

	all := make([]planning.Object, 0, len(domain.Constants)+len(objects))
	all = append(all, domain.Constants...)
	all = append(all, objects...)
	seen := make(map[string]struct{}, len(all))
	for _, obj := range all {
		if _, dup := seen[obj.Name]; dup {
			return nil, fmt.Errorf("object %q is declared more than once", obj.Name)
		}
		seen[obj.Name] = struct{}{}
	}

	fluents := make([]planning.Fluent, 0, len(domain.Predicates)+len(domain.Functions))
	fluents = append(fluents, domain.Predicates...)
	fluents = append(fluents, domain.Functions...)

	return planning.NewProblem(body.name, domain.Name, domain.Types, all, domain.Actions, fluents, domain.Features.Union(features))
}

// isTimedLiteral matches (at <number> <fact>) in an init section.
func isTimedLiteral(e *sexpr.Expr) bool {
	if e.Head() != "at" || len(e.Args()) != 2 {
		return false
	}
	_, ok := numberLiteral(e.Args()[0])
	return ok && e.Args()[1].IsList()
}

func scanConstraints(items []*sexpr.Expr, features *planning.Features) {
	stack := append([]*sexpr.Expr(nil), items...)
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !e.IsList() {
			continue
		}
		head := e.Head()
		switch {
		case timedConstraints[head]:
			features.TimedGoals = true
		case head == "and" || head == "preference":
			stack = append(stack, e.Args()...)
		case head == "forall" && len(e.Args()) == 2:
			stack = append(stack, e.Args()[1])
		}
	}
}
