// Package smtlib reads SMT-LIB v2 scripts into formula documents.
package smtlib

import (
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/formula"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/sexpr"
)

// Reader converts SMT-LIB scripts into documents. The zero value is usable.
type Reader struct {
	Logger *zap.Logger
	// Manager interns the nodes of every document read. A fresh manager is
	// used per document when nil.
	Manager *formula.Manager
}

// LoadFile reads and parses the script at path with a zero Reader.
func LoadFile(path string) (*formula.Document, error) {
	return (&Reader{}).LoadFile(path)
}

// Parse parses a script from r with a zero Reader.
func Parse(r io.Reader) (*formula.Document, error) {
	return (&Reader{}).Parse(r)
}

// LoadFile reads and parses the script at path.
func (rd *Reader) LoadFile(path string) (*formula.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	doc, err := rd.parse(data)
	if err != nil {
		return nil, toParseError(path, err)
	}
	rd.logger().Debug("smt-lib script parsed",
		zap.String("path", path),
		zap.String("logic", doc.Logic),
		zap.Int("assertions", len(doc.Assertions)),
		zap.Int("declarations", len(doc.Declarations)),
	)
	return doc, nil
}

// Parse parses a script from r.
func (rd *Reader) Parse(r io.Reader) (*formula.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	doc, err := rd.parse(data)
	if err != nil {
		return nil, toParseError("", err)
	}
	return doc, nil
}

func (rd *Reader) logger() *zap.Logger {
	if rd == nil || rd.Logger == nil {
		return zap.NewNop()
	}
	return rd.Logger
}

func (rd *Reader) parse(data []byte) (*formula.Document, error) {
	cmds, err := sexpr.Parse(data, sexpr.Options{})
	if err != nil {
		return nil, err
	}
	var m *formula.Manager
	if rd != nil {
		m = rd.Manager
	}
	if m == nil {
		m = formula.NewManager()
	}
	s := newScript(m)
	for _, cmd := range cmds {
		done, err := s.command(cmd)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	return s.doc, nil
}

type level struct {
	assertions   int
	declarations int
	names        []string
	// count is the number of levels one push opened. Only the innermost of
	// them can hold declarations.
	count int
}

// script is the interpreter state for one SMT-LIB script.
type script struct {
	m   *formula.Manager
	doc *formula.Document

	sorts     map[string]string
	consts    map[string]string
	functions map[string]formula.Declaration
	defined   map[string]*formula.Node
	macros    map[string]*macro

	realNumerals bool
	scopes       []level
	depth        int
	// names declared since the innermost push.
	names []string

	bound map[string][]*formula.Node
}

func newScript(m *formula.Manager) *script {
	return &script{
		m:         m,
		doc:       &formula.Document{},
		sorts:     make(map[string]string),
		consts:    make(map[string]string),
		functions: make(map[string]formula.Declaration),
		defined:   make(map[string]*formula.Node),
		macros:    make(map[string]*macro),
		bound:     make(map[string][]*formula.Node),
	}
}

// command executes one top-level command and reports whether the script
// ended.
func (s *script) command(cmd *sexpr.Expr) (bool, error) {
	name := cmd.Head()
	if name == "" {
		return false, sexpr.Errorf(cmd, "expected a command, got %s", cmd)
	}
	args := cmd.Args()

	switch name {
	case "set-logic":
		if len(args) != 1 || args[0].Kind != sexpr.Symbol {
			return false, sexpr.Errorf(cmd, "set-logic expects a logic name")
		}
		s.doc.Logic = args[0].Text
		s.realNumerals = realOnlyLogic(args[0].Text)

	case "set-info", "set-option", "get-info", "get-option", "check-sat", "check-sat-assuming",
		"get-model", "get-value", "get-assignment", "get-assertions", "get-proof",
		"get-unsat-core", "get-unsat-assumptions", "echo":

	case "exit":
		return true, nil

	case "declare-sort":
		if len(args) < 1 || args[0].Kind != sexpr.Symbol {
			return false, sexpr.Errorf(cmd, "declare-sort expects a sort name")
		}
		s.sorts[args[0].Text] = args[0].Text
		s.names = append(s.names, args[0].Text)

	case "define-sort":
		if len(args) != 3 || args[0].Kind != sexpr.Symbol || !args[1].IsList() {
			return false, sexpr.Errorf(cmd, "define-sort expects a name, parameters and a sort")
		}
		if len(args[1].Items) == 0 {
			s.sorts[args[0].Text] = s.sortName(args[2])
		} else {
			s.sorts[args[0].Text] = args[2].String()
		}
		s.names = append(s.names, args[0].Text)

	case "declare-const":
		if len(args) != 2 || args[0].Kind != sexpr.Symbol {
			return false, sexpr.Errorf(cmd, "declare-const expects a name and a sort")
		}
		return false, s.declare(args[0], nil, args[1])

	case "declare-fun":
		if len(args) != 3 || args[0].Kind != sexpr.Symbol || !args[1].IsList() {
			return false, sexpr.Errorf(cmd, "declare-fun expects a name, argument sorts and a result sort")
		}
		return false, s.declare(args[0], args[1].Items, args[2])

	case "define-fun":
		if len(args) != 4 || args[0].Kind != sexpr.Symbol || !args[1].IsList() {
			return false, sexpr.Errorf(cmd, "define-fun expects a name, parameters, a sort and a body")
		}
		return false, s.defineFun(args[0], args[1].Items, args[2], args[3])

	case "assert":
		if len(args) != 1 {
			return false, sexpr.Errorf(cmd, "assert expects one term")
		}
		n, err := s.term(args[0])
		if err != nil {
			return false, err
		}
		s.doc.Assertions = append(s.doc.Assertions, n)

	case "push":
		levels, err := levelCount(cmd)
		if err != nil {
			return false, err
		}
		if levels == 0 {
			break
		}
		if levels > math.MaxInt-s.depth {
			return false, sexpr.Errorf(cmd, "push %d exceeds the maximum scope depth", levels)
		}
		s.scopes = append(s.scopes, level{
			assertions:   len(s.doc.Assertions),
			declarations: len(s.doc.Declarations),
			names:        s.names,
			count:        levels,
		})
		s.names = nil
		s.depth += levels

	case "pop":
		levels, err := levelCount(cmd)
		if err != nil {
			return false, err
		}
		if levels > s.depth {
			return false, sexpr.Errorf(cmd, "pop %d exceeds the %d pushed levels", levels, s.depth)
		}
		s.popLevels(levels)

	case "reset-assertions":
		s.popLevels(s.depth)
		s.doc.Assertions = nil

	default:
		return false, sexpr.Errorf(cmd, "unsupported command %q", name)
	}
	return false, nil
}

// popLevels discards the innermost n levels.
func (s *script) popLevels(n int) {
	for n > 0 {
		top := &s.scopes[len(s.scopes)-1]
		for _, name := range s.names {
			delete(s.sorts, name)
			delete(s.consts, name)
			delete(s.functions, name)
			delete(s.defined, name)
			delete(s.macros, name)
		}
		s.doc.Assertions = s.doc.Assertions[:top.assertions]
		s.doc.Declarations = s.doc.Declarations[:top.declarations]

		k := min(n, top.count)
		top.count -= k
		s.depth -= k
		n -= k
		if top.count > 0 {
			s.names = nil
			continue
		}
		s.names = top.names
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

func levelCount(cmd *sexpr.Expr) (int, error) {
	args := cmd.Args()
	if len(args) == 0 {
		return 1, nil
	}
	if len(args) != 1 || args[0].Kind != sexpr.Numeral {
		return 0, sexpr.Errorf(cmd, "%s expects a numeral", cmd.Head())
	}
	n, err := strconv.Atoi(args[0].Text)
	if err != nil {
		return 0, sexpr.Errorf(args[0], "invalid level count %s", args[0].Text)
	}
	return n, nil
}

func (s *script) declare(nameExpr *sexpr.Expr, argSorts []*sexpr.Expr, result *sexpr.Expr) error {
	name := nameExpr.Text
	if s.isDeclared(name) {
		return sexpr.Errorf(nameExpr, "symbol %q is already declared", name)
	}
	decl := formula.Declaration{Name: name, Result: s.sortName(result)}
	for _, a := range argSorts {
		decl.Args = append(decl.Args, s.sortName(a))
	}
	if decl.IsConstant() {
		s.consts[name] = decl.Result
	} else {
		s.functions[name] = decl
	}
	s.names = append(s.names, name)
	s.doc.Declarations = append(s.doc.Declarations, decl)
	return nil
}

func (s *script) isDeclared(name string) bool {
	if _, ok := s.consts[name]; ok {
		return true
	}
	if _, ok := s.functions[name]; ok {
		return true
	}
	if _, ok := s.defined[name]; ok {
		return true
	}
	_, ok := s.macros[name]
	return ok
}

// sortName renders a sort, resolving parameterless define-sort aliases.
func (s *script) sortName(e *sexpr.Expr) string {
	if e.Kind == sexpr.Symbol {
		if alias, ok := s.sorts[e.Text]; ok {
			return alias
		}
	}
	return e.String()
}

// realOnlyLogic reports whether numerals denote reals in logic.
func realOnlyLogic(logic string) bool {
	if strings.Contains(logic, "IRA") || strings.Contains(logic, "IA") || strings.Contains(logic, "IDL") {
		return false
	}
	return strings.Contains(logic, "RA") || strings.HasSuffix(logic, "RDL")
}
