// Package planning holds the grounded planning-domain/problem model consumed by
// the metrics engine. Values are built once by a reader and never mutated.
package planning

import (
	"fmt"
	"math/big"
	"sort"
	"sync"
)

// ObjectTypeName is the implicit root of every type hierarchy.
const ObjectTypeName = "object"

// Type is a named object type with an optional parent.
type Type struct {
	Name   string
	Parent *Type
}

// IsSubtypeOf reports whether t equals other or descends from it.
func (t *Type) IsSubtypeOf(other *Type) bool {
	for cur := t; cur != nil; cur = cur.Parent {
		if cur == other {
			return true
		}
	}
	return false
}

func (t *Type) String() string {
	if t == nil {
		return ObjectTypeName
	}
	return t.Name
}

// Object is a problem object or domain constant.
type Object struct {
	Name string
	Type *Type
}

// Parameter is a typed operator parameter.
type Parameter struct {
	Name string
	Type *Type
}

// ValueKind classifies an effect value.
type ValueKind int

const (
	ValueExpression ValueKind = iota
	ValueBool
	ValueNumber
)

// Value is the right-hand side of an effect.
type Value struct {
	Kind ValueKind
	Bool bool
	// Number is set for ValueNumber.
	Number *big.Rat
	// Expr is the source text for ValueExpression.
	Expr string
}

// BoolValue returns a boolean literal value.
func BoolValue(b bool) Value {
	return Value{Kind: ValueBool, Bool: b}
}

// NumberValue returns a numeric constant value.
func NumberValue(r *big.Rat) Value {
	return Value{Kind: ValueNumber, Number: new(big.Rat).Set(r)}
}

// IntValue returns a numeric constant value for an integer.
func IntValue(n int64) Value {
	return NumberValue(big.NewRat(n, 1))
}

// ExpressionValue returns a value that is neither a boolean nor a constant.
func ExpressionValue(text string) Value {
	return Value{Kind: ValueExpression, Expr: text}
}

func (v Value) String() string {
	switch v.Kind {
	case ValueBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValueNumber:
		return v.Number.RatString()
	default:
		return v.Expr
	}
}

// EffectKind is the update applied by an effect.
type EffectKind string

const (
	EffectAssign    EffectKind = "assign"
	EffectIncrease  EffectKind = "increase"
	EffectDecrease  EffectKind = "decrease"
	EffectScaleUp   EffectKind = "scale-up"
	EffectScaleDown EffectKind = "scale-down"
)

// Timing keys for durative operators.
const (
	TimingStart = "start"
	TimingEnd   = "end"
)

// Effect is a single fluent update of an operator.
type Effect struct {
	Fluent      string
	Kind        EffectKind
	Value       Value
	Timing      string
	Conditional bool
}

// Operator is an action schema.
type Operator struct {
	Name       string
	Parameters []Parameter
	Effects    []Effect
	Durative   bool
}

// EffectsByTiming groups effects by timing key. Instantaneous operators use
// the empty key.
func (o *Operator) EffectsByTiming() map[string][]Effect {
	out := make(map[string][]Effect)
	for _, eff := range o.Effects {
		out[eff.Timing] = append(out[eff.Timing], eff)
	}
	return out
}

// FluentKind is the value type of a fluent.
type FluentKind string

const (
	FluentBool   FluentKind = "bool"
	FluentReal   FluentKind = "real"
	FluentInt    FluentKind = "int"
	FluentObject FluentKind = "object"
)

// Fluent is a predicate or function declared by the domain.
type Fluent struct {
	Name       string
	Parameters []Parameter
	Kind       FluentKind
}

// Features is the fixed set of expressive features present in a problem.
type Features struct {
	ContinuousTime        bool `json:"continuous_time" yaml:"continuous_time"`
	TimedEffects          bool `json:"timed_effects" yaml:"timed_effects"`
	TimedGoals            bool `json:"timed_goals" yaml:"timed_goals"`
	NumericFluents        bool `json:"numeric_fluents" yaml:"numeric_fluents"`
	IntFluents            bool `json:"int_fluents" yaml:"int_fluents"`
	RealFluents           bool `json:"real_fluents" yaml:"real_fluents"`
	ObjectFluents         bool `json:"object_fluents" yaml:"object_fluents"`
	BoolFluents           bool `json:"bool_fluents" yaml:"bool_fluents"`
	ConditionalEffects    bool `json:"conditional_effects" yaml:"conditional_effects"`
	NegativeConditions    bool `json:"negative_conditions" yaml:"negative_conditions"`
	Equality              bool `json:"equality" yaml:"equality"`
	ExistentialConditions bool `json:"existential_conditions" yaml:"existential_conditions"`
	UniversalConditions   bool `json:"universal_conditions" yaml:"universal_conditions"`
}

// Union returns the features present in f or o.
func (f Features) Union(o Features) Features {
	return Features{
		ContinuousTime:        f.ContinuousTime || o.ContinuousTime,
		TimedEffects:          f.TimedEffects || o.TimedEffects,
		TimedGoals:            f.TimedGoals || o.TimedGoals,
		NumericFluents:        f.NumericFluents || o.NumericFluents,
		IntFluents:            f.IntFluents || o.IntFluents,
		RealFluents:           f.RealFluents || o.RealFluents,
		ObjectFluents:         f.ObjectFluents || o.ObjectFluents,
		BoolFluents:           f.BoolFluents || o.BoolFluents,
		ConditionalEffects:    f.ConditionalEffects || o.ConditionalEffects,
		NegativeConditions:    f.NegativeConditions || o.NegativeConditions,
		Equality:              f.Equality || o.Equality,
		ExistentialConditions: f.ExistentialConditions || o.ExistentialConditions,
		UniversalConditions:   f.UniversalConditions || o.UniversalConditions,
	}
}

// Problem is a domain/problem pair. NewProblem validates the types; a Problem
// built as a literal is indexed on first use.
type Problem struct {
	Name      string
	Domain    string
	Types     []*Type
	Objects   []Object
	Operators []Operator
	Fluents   []Fluent
	Features  Features

	indexOnce sync.Once
	byType    map[*Type][]Object
}

// NewProblem indexes objects by type. Every object and parameter type must be
// one of types (a nil type means object).
func NewProblem(name, domain string, types []*Type, objects []Object, operators []Operator, fluents []Fluent, features Features) (*Problem, error) {
	known := make(map[*Type]struct{}, len(types))
	for _, t := range types {
		known[t] = struct{}{}
	}
	check := func(t *Type, what string) error {
		if t == nil {
			return nil
		}
		if _, ok := known[t]; !ok {
			return fmt.Errorf("%s: type %q is not declared", what, t.Name)
		}
		return nil
	}

	p := &Problem{
		Name:      name,
		Domain:    domain,
		Types:     types,
		Objects:   objects,
		Operators: operators,
		Fluents:   fluents,
		Features:  features,
	}
	for _, obj := range objects {
		if err := check(obj.Type, "object "+obj.Name); err != nil {
			return nil, err
		}
	}
	for _, op := range operators {
		for _, param := range op.Parameters {
			if err := check(param.Type, fmt.Sprintf("operator %s parameter %s", op.Name, param.Name)); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// ObjectsOfType returns the objects whose type is t or a subtype of t. A nil
// type or the root object type matches every object.
func (p *Problem) ObjectsOfType(t *Type) []Object {
	if t == nil || (t.Parent == nil && t.Name == ObjectTypeName) {
		return p.Objects
	}
	p.indexOnce.Do(p.index)
	return p.byType[t]
}

func (p *Problem) index() {
	p.byType = make(map[*Type][]Object)
	for _, obj := range p.Objects {
		for cur := obj.Type; cur != nil; cur = cur.Parent {
			p.byType[cur] = append(p.byType[cur], obj)
		}
	}
}

// TypeNames returns the declared type names in sorted order.
func (p *Problem) TypeNames() []string {
	names := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}
