package pddl

import (
	"math/big"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/planning"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/sexpr"
)

var assignOps = map[string]planning.EffectKind{
	"assign":     planning.EffectAssign,
	"increase":   planning.EffectIncrease,
	"decrease":   planning.EffectDecrease,
	"scale-up":   planning.EffectScaleUp,
	"scale-down": planning.EffectScaleDown,
}

type pendingEffect struct {
	expr        *sexpr.Expr
	timing      string
	conditional bool
}

// parseEffects flattens an effect formula into fluent updates in source order.
func parseEffects(root *sexpr.Expr, durative bool, features *planning.Features) ([]planning.Effect, error) {
	var out []planning.Effect
	stack := []pendingEffect{{expr: root}}
	push := func(parent pendingEffect, items []*sexpr.Expr) {
		for i := len(items) - 1; i >= 0; i-- {
			next := parent
			next.expr = items[i]
			stack = append(stack, next)
		}
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e := cur.expr
		if !e.IsList() {
			return nil, sexpr.Errorf(e, "expected an effect, got %s", e)
		}
		if len(e.Items) == 0 {
			continue
		}
		args := e.Args()

		switch head := e.Head(); {
		case head == "and":
			push(cur, args)

		case durative && head == "at" && len(args) == 2 && (args[0].Is(planning.TimingStart) || args[0].Is(planning.TimingEnd)) && args[1].IsList():
			if cur.timing != "" {
				return nil, sexpr.Errorf(e, "nested timing annotation")
			}
			next := cur
			next.timing = args[0].Text
			push(next, args[1:])

		case head == "when":
			if len(args) != 2 {
				return nil, sexpr.Errorf(e, "when expects a condition and an effect")
			}
			features.ConditionalEffects = true
			scanCondition(args[0], features)
			next := cur
			next.conditional = true
			push(next, args[1:])

		case head == "forall":
			if len(args) != 2 {
				return nil, sexpr.Errorf(e, "forall expects variables and an effect")
			}
			push(cur, args[1:])

		case head == "not":
			if len(args) != 1 || !args[0].IsList() || args[0].Head() == "" {
				return nil, sexpr.Errorf(e, "not expects an atomic formula")
			}
			out = append(out, planning.Effect{
				Fluent:      args[0].Head(),
				Kind:        planning.EffectAssign,
				Value:       planning.BoolValue(false),
				Timing:      cur.timing,
				Conditional: cur.conditional,
			})

		case assignOps[head] != "":
			if len(args) != 2 {
				return nil, sexpr.Errorf(e, "%s expects a fluent and a value", head)
			}
			fluent := args[0].Text
			if args[0].IsList() {
				fluent = args[0].Head()
			}
			if fluent == "" {
				return nil, sexpr.Errorf(args[0], "%s expects a fluent", head)
			}
			out = append(out, planning.Effect{
				Fluent:      fluent,
				Kind:        assignOps[head],
				Value:       parseValue(args[1]),
				Timing:      cur.timing,
				Conditional: cur.conditional,
			})

		default:
			out = append(out, planning.Effect{
				Fluent:      head,
				Kind:        planning.EffectAssign,
				Value:       planning.BoolValue(true),
				Timing:      cur.timing,
				Conditional: cur.conditional,
			})
		}
	}
	return out, nil
}

// parseValue keeps numeric literals as numbers and everything else as
// expression text.
func parseValue(e *sexpr.Expr) planning.Value {
	if r, ok := numberLiteral(e); ok {
		return planning.NumberValue(r)
	}
	return planning.ExpressionValue(e.String())
}

func numberLiteral(e *sexpr.Expr) (*big.Rat, bool) {
	switch {
	case e.Kind == sexpr.Numeral || e.Kind == sexpr.Decimal:
		return new(big.Rat).SetString(e.Text)
	case e.Kind == sexpr.Symbol && len(e.Text) > 1 && (e.Text[0] == '-' || e.Text[0] == '+'):
		return new(big.Rat).SetString(e.Text)
	case e.IsList() && e.Head() == "-" && len(e.Args()) == 1:
		r, ok := numberLiteral(e.Args()[0])
		if !ok {
			return nil, false
		}
		return r.Neg(r), true
	}
	return nil, false
}

// scanCondition records the condition features used by a goal or
// precondition.
func scanCondition(root *sexpr.Expr, features *planning.Features) {
	stack := []*sexpr.Expr{root}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !e.IsList() || len(e.Items) == 0 {
			continue
		}
		args := e.Args()
		switch e.Head() {
		case "and", "or", "imply", "preference":
			stack = append(stack, args...)
		case "not":
			features.NegativeConditions = true
			stack = append(stack, args...)
		case "=":
			features.Equality = true
		case "exists":
			features.ExistentialConditions = true
			if len(args) > 1 {
				stack = append(stack, args[1:]...)
			}
		case "forall":
			features.UniversalConditions = true
			if len(args) > 1 {
				stack = append(stack, args[1:]...)
			}
		case "at", "over":
			if len(args) == 2 && args[1].IsList() {
				stack = append(stack, args[1])
			}
		}
	}
}
