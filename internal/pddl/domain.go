package pddl

import (
	"fmt"
	"strings"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/planning"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/sexpr"
)

// Domain is a parsed PDDL domain. It is combined with a problem by
// ParseProblem.
type Domain struct {
	Name         string
	Requirements []string
	Types        []*planning.Type
	Constants    []planning.Object
	Predicates   []planning.Fluent
	Functions    []planning.Fluent
	Actions      []planning.Operator
	// Features observed in the domain itself.
	Features planning.Features

	types map[string]*planning.Type
}

// Type returns the declared type called name.
func (d *Domain) Type(name string) (*planning.Type, bool) {
	t, ok := d.types[name]
	return t, ok
}

// ParseDomain parses domain text.
func ParseDomain(data []byte) (*Domain, error) {
	body, err := parseDefine(data, "domain")
	if err != nil {
		return nil, err
	}

	root := &planning.Type{Name: planning.ObjectTypeName}
	d := &Domain{
		Name:  body.name,
		Types: []*planning.Type{root},
		types: map[string]*planning.Type{planning.ObjectTypeName: root},
	}

	for _, section := range body.sections {
		var err error
		switch section.Head() {
		case ":requirements":
			for _, req := range section.Args() {
				d.Requirements = append(d.Requirements, req.Text)
			}
		case ":types":
			err = d.parseTypes(section.Args())
		case ":constants":
			d.Constants, err = d.parseObjects(section.Args())
		case ":predicates":
			err = d.parsePredicates(section.Args())
		case ":functions":
			err = d.parseFunctions(section.Args())
		case ":action":
			err = d.parseAction(section, false)
		case ":durative-action":
			d.Features.ContinuousTime = true
			err = d.parseAction(section, true)
		case ":constraints", ":derived":
		default:
			err = sexpr.Errorf(section, "unsupported domain section %q", section.Head())
		}
		if err != nil {
			return nil, err
		}
	}

	if len(d.Predicates) > 0 {
		d.Features.BoolFluents = true
	}
	return d, nil
}

type defineBody struct {
	name     string
	sections []*sexpr.Expr
}

// parseDefine checks the (define (<kind> name) ...) envelope.
func parseDefine(data []byte, kind string) (*defineBody, error) {
	exprs, err := sexpr.Parse(data, sexpr.Options{FoldCase: true})
	if err != nil {
		return nil, err
	}
	if len(exprs) != 1 {
		return nil, fmt.Errorf("expected exactly one define form, found %d top-level expressions", len(exprs))
	}
	def := exprs[0]
	if def.Head() != "define" {
		return nil, sexpr.Errorf(def, "expected (define ...)")
	}
	args := def.Args()
	if len(args) == 0 || args[0].Head() != kind || len(args[0].Args()) != 1 || !args[0].Args()[0].IsAtom() {
		return nil, sexpr.Errorf(def, "expected (%s <name>) after define", kind)
	}
	body := &defineBody{name: args[0].Args()[0].Text}
	for _, section := range args[1:] {
		if !section.IsList() || !strings.HasPrefix(section.Head(), ":") {
			return nil, sexpr.Errorf(section, "expected a section such as (:requirements ...)")
		}
		body.sections = append(body.sections, section)
	}
	return body, nil
}

func (d *Domain) ensureType(name string) *planning.Type {
	if t, ok := d.types[name]; ok {
		return t
	}
	t := &planning.Type{Name: name, Parent: d.types[planning.ObjectTypeName]}
	d.types[name] = t
	d.Types = append(d.Types, t)
	return t
}

func (d *Domain) parseTypes(items []*sexpr.Expr) error {
	names, err := typedList(items)
	if err != nil {
		return err
	}
	for _, tn := range names {
		if !tn.expr.IsAtom() {
			return sexpr.Errorf(tn.expr, "type name must be a symbol")
		}
		name := tn.expr.Text
		if name == planning.ObjectTypeName {
			continue
		}
		parentName := tn.typ
		if parentName == "" {
			parentName = planning.ObjectTypeName
		}
		t := d.ensureType(name)
		parent := d.ensureType(parentName)
		if parent.IsSubtypeOf(t) {
			return sexpr.Errorf(tn.expr, "type %q cannot extend its own subtype %q", name, parentName)
		}
		t.Parent = parent
	}
	return nil
}

func (d *Domain) lookupType(name string, at *sexpr.Expr) (*planning.Type, error) {
	if name == "" {
		return nil, nil
	}
	t, ok := d.types[name]
	if !ok {
		return nil, sexpr.Errorf(at, "unknown type %q", name)
	}
	return t, nil
}

func (d *Domain) parseObjects(items []*sexpr.Expr) ([]planning.Object, error) {
	names, err := typedList(items)
	if err != nil {
		return nil, err
	}
	out := make([]planning.Object, 0, len(names))
	for _, tn := range names {
		if !tn.expr.IsAtom() {
			return nil, sexpr.Errorf(tn.expr, "object name must be a symbol")
		}
		t, err := d.lookupType(tn.typ, tn.expr)
		if err != nil {
			return nil, err
		}
		out = append(out, planning.Object{Name: tn.expr.Text, Type: t})
	}
	return out, nil
}

func (d *Domain) parseParameters(items []*sexpr.Expr) ([]planning.Parameter, error) {
	names, err := typedList(items)
	if err != nil {
		return nil, err
	}
	out := make([]planning.Parameter, 0, len(names))
	for _, tn := range names {
		if !tn.expr.IsAtom() || !strings.HasPrefix(tn.expr.Text, "?") {
			return nil, sexpr.Errorf(tn.expr, "parameter must be a ?variable")
		}
		t, err := d.lookupType(tn.typ, tn.expr)
		if err != nil {
			return nil, err
		}
		out = append(out, planning.Parameter{Name: tn.expr.Text, Type: t})
	}
	return out, nil
}

func (d *Domain) parseSkeleton(e *sexpr.Expr) (string, []planning.Parameter, error) {
	if !e.IsList() || e.Head() == "" {
		return "", nil, sexpr.Errorf(e, "expected (name ?param ...)")
	}
	params, err := d.parseParameters(e.Args())
	if err != nil {
		return "", nil, err
	}
	return e.Head(), params, nil
}

func (d *Domain) parsePredicates(items []*sexpr.Expr) error {
	for _, item := range items {
		name, params, err := d.parseSkeleton(item)
		if err != nil {
			return err
		}
		d.Predicates = append(d.Predicates, planning.Fluent{Name: name, Parameters: params, Kind: planning.FluentBool})
	}
	return nil
}

func (d *Domain) parseFunctions(items []*sexpr.Expr) error {
	skeletons, err := typedList(items)
	if err != nil {
		return err
	}
	for _, sk := range skeletons {
		name, params, err := d.parseSkeleton(sk.expr)
		if err != nil {
			return err
		}
		fl := planning.Fluent{Name: name, Parameters: params}
		switch sk.typ {
		case "", "number":
			fl.Kind = planning.FluentReal
			d.Features.NumericFluents = true
			d.Features.RealFluents = true
		case "int", "integer":
			fl.Kind = planning.FluentInt
			d.Features.NumericFluents = true
			d.Features.IntFluents = true
		default:
			if _, err := d.lookupType(sk.typ, sk.expr); err != nil {
				return err
			}
			fl.Kind = planning.FluentObject
			d.Features.ObjectFluents = true
		}
		d.Functions = append(d.Functions, fl)
	}
	return nil
}

func (d *Domain) parseAction(section *sexpr.Expr, durative bool) error {
	args := section.Args()
	if len(args) == 0 || !args[0].IsAtom() {
		return sexpr.Errorf(section, "%s requires a name", section.Head())
	}
	op := planning.Operator{Name: args[0].Text, Durative: durative}

	rest := args[1:]
	if len(rest)%2 != 0 {
		return sexpr.Errorf(section, "action %s: expected :keyword value pairs", op.Name)
	}
	for i := 0; i < len(rest); i += 2 {
		key, value := rest[i], rest[i+1]
		if key.Kind != sexpr.Keyword {
			return sexpr.Errorf(key, "action %s: expected a keyword, got %s", op.Name, key)
		}
		switch key.Text {
		case ":parameters":
			if !value.IsList() {
				return sexpr.Errorf(value, "action %s: :parameters must be a list", op.Name)
			}
			params, err := d.parseParameters(value.Items)
			if err != nil {
				return err
			}
			op.Parameters = params
		case ":precondition", ":condition":
			scanCondition(value, &d.Features)
		case ":effect":
			effects, err := parseEffects(value, durative, &d.Features)
			if err != nil {
				return fmt.Errorf("action %s: %w", op.Name, err)
			}
			op.Effects = effects
		case ":duration":
		default:
			return sexpr.Errorf(key, "action %s: unsupported field %s", op.Name, key.Text)
		}
	}
	d.Actions = append(d.Actions, op)
	return nil
}

type typedName struct {
	expr *sexpr.Expr
	typ  string
}

// typedList splits "a b - t c" into (a t) (b t) (c "").
func typedList(items []*sexpr.Expr) ([]typedName, error) {
	var out []typedName
	var pending []*sexpr.Expr
	for i := 0; i < len(items); i++ {
		item := items[i]
		if !item.Is("-") {
			pending = append(pending, item)
			continue
		}
		if i+1 >= len(items) {
			return nil, sexpr.Errorf(item, "missing type after '-'")
		}
		typ := items[i+1]
		if typ.IsList() {
			if typ.Head() == "either" {
				return nil, sexpr.Errorf(typ, "either types are not supported")
			}
			return nil, sexpr.Errorf(typ, "expected a type name")
		}
		if len(pending) == 0 {
			return nil, sexpr.Errorf(item, "type %s has nothing to apply to", typ.Text)
		}
		for _, p := range pending {
			out = append(out, typedName{expr: p, typ: typ.Text})
		}
		pending = nil
		i++
	}
	for _, p := range pending {
		out = append(out, typedName{expr: p})
	}
	return out, nil
}
