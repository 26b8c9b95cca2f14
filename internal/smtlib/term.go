package smtlib

import (
	"math/big"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/formula"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/sexpr"
)

// builtins are the theory function symbols accepted in application position
// without a declaration.
var builtins = map[string]bool{}

func init() {
	for _, group := range [][]string{
		// Core
		{"not", "and", "or", "xor", "=>", "=", "distinct", "ite"},
		// Ints and Reals
		{"+", "-", "*", "/", "div", "mod", "abs", "<", "<=", ">", ">=", "to_real", "to_int", "is_int"},
		// ArraysEx
		{"select", "store"},
		// FixedSizeBitVectors and QF_BV extensions
		{
			"concat", "bvnot", "bvand", "bvor", "bvneg", "bvadd", "bvmul", "bvudiv", "bvurem", "bvshl",
			"bvlshr", "bvult", "bvnand", "bvnor", "bvxor", "bvxnor", "bvcomp", "bvsub", "bvsdiv",
			"bvsrem", "bvsmod", "bvashr", "bvule", "bvugt", "bvuge", "bvslt", "bvsle", "bvsgt", "bvsge",
		},
		// Strings
		{
			"str.++", "str.len", "str.<", "str.<=", "str.at", "str.substr", "str.prefixof", "str.suffixof",
			"str.contains", "str.indexof", "str.replace", "str.replace_all", "str.is_digit", "str.to_code",
			"str.from_code", "str.to_int", "str.from_int", "str.to_re", "str.in_re", "re.*", "re.+",
			"re.opt", "re.++", "re.union", "re.inter", "re.range", "re.comp", "re.diff",
		},
	} {
		for _, op := range group {
			builtins[op] = true
		}
	}
}

// indexedOps are the (_ name i...) operator families.
var indexedOps = map[string]bool{
	"extract": true, "repeat": true, "zero_extend": true, "sign_extend": true,
	"rotate_left": true, "rotate_right": true, "re.loop": true, "re.^": true,
}

// macro is a define-fun with parameters. The body is converted once with
// placeholder symbols that are replaced by the arguments at each use.
type macro struct {
	params []*formula.Node
	body   *formula.Node
}

// placeholderName cannot clash with a reader symbol: quoted symbols never
// contain '|'.
func placeholderName(fn, param string) string {
	return "|" + fn + "|" + param
}

func (s *script) defineFun(nameExpr *sexpr.Expr, params []*sexpr.Expr, result, body *sexpr.Expr) error {
	name := nameExpr.Text
	if s.isDeclared(name) {
		return sexpr.Errorf(nameExpr, "symbol %q is already declared", name)
	}
	if len(params) == 0 {
		n, err := s.term(body)
		if err != nil {
			return err
		}
		s.defined[name] = n
		s.names = append(s.names, name)
		return nil
	}

	vars, err := s.sortedVars(params, func(v, sort string) *formula.Node {
		return s.m.Symbol(placeholderName(name, v), sort)
	})
	if err != nil {
		return err
	}
	n, err := s.withBound(vars, body)
	if err != nil {
		return err
	}
	mac := &macro{body: n}
	for _, v := range vars {
		mac.params = append(mac.params, v.node)
	}
	s.macros[name] = mac
	s.names = append(s.names, name)
	return nil
}

type boundVar struct {
	name string
	node *formula.Node
}

func (s *script) sortedVars(items []*sexpr.Expr, mk func(name, sort string) *formula.Node) ([]boundVar, error) {
	vars := make([]boundVar, 0, len(items))
	for _, item := range items {
		if !item.IsList() || len(item.Items) != 2 || item.Items[0].Kind != sexpr.Symbol {
			return nil, sexpr.Errorf(item, "expected (name sort)")
		}
		name := item.Items[0].Text
		vars = append(vars, boundVar{name: name, node: mk(name, s.sortName(item.Items[1]))})
	}
	return vars, nil
}

// withBound converts body with vars in scope.
func (s *script) withBound(vars []boundVar, body *sexpr.Expr) (*formula.Node, error) {
	for _, v := range vars {
		s.bound[v.name] = append(s.bound[v.name], v.node)
	}
	defer func() {
		for _, v := range vars {
			stack := s.bound[v.name]
			if len(stack) == 1 {
				delete(s.bound, v.name)
			} else {
				s.bound[v.name] = stack[:len(stack)-1]
			}
		}
	}()
	return s.term(body)
}

// term converts a term expression into a node.
func (s *script) term(e *sexpr.Expr) (*formula.Node, error) {
	switch e.Kind {
	case sexpr.Numeral:
		v, ok := new(big.Int).SetString(e.Text, 10)
		if !ok {
			return nil, sexpr.Errorf(e, "invalid numeral %s", e.Text)
		}
		if s.realNumerals {
			return s.m.Real(new(big.Rat).SetInt(v)), nil
		}
		return s.m.Int(v), nil
	case sexpr.Decimal:
		v, ok := new(big.Rat).SetString(e.Text)
		if !ok {
			return nil, sexpr.Errorf(e, "invalid decimal %s", e.Text)
		}
		return s.m.Real(v), nil
	case sexpr.Binary, sexpr.Hex:
		return s.m.BitVec(e.Text), nil
	case sexpr.String:
		return s.m.StringLit(e.Text), nil
	case sexpr.Symbol:
		return s.symbol(e)
	case sexpr.Keyword:
		return nil, sexpr.Errorf(e, "unexpected keyword %s in term", e.Text)
	}

	if len(e.Items) == 0 {
		return nil, sexpr.Errorf(e, "empty term")
	}
	if head := e.Items[0]; head.IsList() {
		return s.qualifiedApplication(e)
	}

	args := e.Args()
	switch head := e.Head(); head {
	case "_":
		// (_ bv5 32) and friends.
		if len(args) == 2 && args[0].Kind == sexpr.Symbol && len(args[0].Text) > 2 && args[0].Text[:2] == "bv" {
			return s.m.BitVec(e.String()), nil
		}
		return nil, sexpr.Errorf(e, "unsupported indexed constant %s", e)

	case "!":
		if len(args) == 0 {
			return nil, sexpr.Errorf(e, "annotation without a term")
		}
		return s.term(args[0])

	case "as":
		if len(args) != 2 {
			return nil, sexpr.Errorf(e, "as expects a term and a sort")
		}
		return s.term(args[0])

	case "let":
		return s.let(e)

	case formula.OpForall, formula.OpExists:
		if len(args) != 2 || !args[0].IsList() || len(args[0].Items) == 0 {
			return nil, sexpr.Errorf(e, "%s expects sorted variables and a body", head)
		}
		vars, err := s.sortedVars(args[0].Items, s.m.Variable)
		if err != nil {
			return nil, err
		}
		body, err := s.withBound(vars, args[1])
		if err != nil {
			return nil, err
		}
		bound := make([]*formula.Node, len(vars))
		for i, v := range vars {
			bound[i] = v.node
		}
		return s.m.Quantifier(head, bound, body), nil

	case "match":
		return nil, sexpr.Errorf(e, "match terms are not supported")
	}

	children, err := s.terms(args)
	if err != nil {
		return nil, err
	}
	return s.apply(e, children)
}

func (s *script) terms(items []*sexpr.Expr) ([]*formula.Node, error) {
	out := make([]*formula.Node, len(items))
	for i, item := range items {
		n, err := s.term(item)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (s *script) symbol(e *sexpr.Expr) (*formula.Node, error) {
	name := e.Text
	if stack := s.bound[name]; len(stack) > 0 {
		return stack[len(stack)-1], nil
	}
	switch name {
	case "true":
		return s.m.Bool(true), nil
	case "false":
		return s.m.Bool(false), nil
	}
	if sort, ok := s.consts[name]; ok {
		return s.m.Symbol(name, sort), nil
	}
	if n, ok := s.defined[name]; ok {
		return n, nil
	}
	return nil, sexpr.Errorf(e, "undeclared symbol %q", name)
}

// apply builds the application of the head of e to children.
func (s *script) apply(e *sexpr.Expr, children []*formula.Node) (*formula.Node, error) {
	head := e.Head()
	if mac, ok := s.macros[head]; ok {
		if len(children) != len(mac.params) {
			return nil, sexpr.Errorf(e, "%s expects %d arguments, got %d", head, len(mac.params), len(children))
		}
		return s.substitute(mac, children), nil
	}
	if decl, ok := s.functions[head]; ok {
		if len(children) != len(decl.Args) {
			return nil, sexpr.Errorf(e, "%s expects %d arguments, got %d", head, len(decl.Args), len(children))
		}
		return s.m.Apply(head, children...), nil
	}
	if builtins[head] {
		return s.m.Apply(head, children...), nil
	}
	if _, ok := s.consts[head]; ok {
		return nil, sexpr.Errorf(e, "%q is a constant and cannot be applied", head)
	}
	return nil, sexpr.Errorf(e, "undeclared function %q", head)
}

// qualifiedApplication handles ((_ extract 3 0) x) and ((as const S) v).
func (s *script) qualifiedApplication(e *sexpr.Expr) (*formula.Node, error) {
	head := e.Items[0]
	var op string
	switch head.Head() {
	case "_":
		if len(head.Items) < 3 || !indexedOps[head.Items[1].Text] {
			return nil, sexpr.Errorf(head, "unsupported indexed operator %s", head)
		}
		op = head.Items[1].Text
	case "as":
		if len(head.Items) != 3 || head.Items[1].Kind != sexpr.Symbol {
			return nil, sexpr.Errorf(head, "unsupported qualified identifier %s", head)
		}
		op = head.Items[1].Text
	default:
		return nil, sexpr.Errorf(head, "expected a function symbol, got %s", head)
	}
	children, err := s.terms(e.Args())
	if err != nil {
		return nil, err
	}
	return s.m.Apply(op, children...), nil
}

// let binds all names in parallel, so binding terms see the outer scope.
func (s *script) let(e *sexpr.Expr) (*formula.Node, error) {
	args := e.Args()
	if len(args) != 2 || !args[0].IsList() || len(args[0].Items) == 0 {
		return nil, sexpr.Errorf(e, "let expects bindings and a body")
	}
	vars := make([]boundVar, 0, len(args[0].Items))
	for _, binding := range args[0].Items {
		if !binding.IsList() || len(binding.Items) != 2 || binding.Items[0].Kind != sexpr.Symbol {
			return nil, sexpr.Errorf(binding, "expected (name term)")
		}
		n, err := s.term(binding.Items[1])
		if err != nil {
			return nil, err
		}
		vars = append(vars, boundVar{name: binding.Items[0].Text, node: n})
	}
	return s.withBound(vars, args[1])
}

// substitute instantiates a macro body with args in place of its parameters.
func (s *script) substitute(mac *macro, args []*formula.Node) *formula.Node {
	replaced := make(map[*formula.Node]*formula.Node, len(mac.params))
	for i, p := range mac.params {
		replaced[p] = args[i]
	}

	type frame struct {
		n        *formula.Node
		expanded bool
	}
	stack := []frame{{n: mac.body}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, done := replaced[top.n]; done {
			continue
		}
		if !top.n.IsOperator() {
			replaced[top.n] = top.n
			continue
		}
		if !top.expanded {
			stack = append(stack, frame{n: top.n, expanded: true})
			for _, c := range top.n.Children {
				if _, done := replaced[c]; !done {
					stack = append(stack, frame{n: c})
				}
			}
			continue
		}
		children := make([]*formula.Node, len(top.n.Children))
		for i, c := range top.n.Children {
			children[i] = replaced[c]
		}
		if len(top.n.Bound) > 0 {
			replaced[top.n] = s.m.Quantifier(top.n.Op, top.n.Bound, children[0])
		} else {
			replaced[top.n] = s.m.Apply(top.n.Op, children...)
		}
	}
	return replaced[mac.body]
}
