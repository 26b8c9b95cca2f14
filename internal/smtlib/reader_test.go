package smtlib

import (
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/formula"
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/metrics"
)

func parseWith(t *testing.T, m *formula.Manager, src string) *formula.Document {
	t.Helper()
	doc, err := (&Reader{Manager: m}).Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestLoadFile(t *testing.T) {
	doc, err := LoadFile(filepath.Join("testdata", "sensor.smt2"))
	require.NoError(t, err)

	assert.Equal(t, "QF_LRA", doc.Logic)
	require.Len(t, doc.Assertions, 3)
	want := []formula.Declaration{
		{Name: "s1", Result: "Real"},
		{Name: "s2", Result: "Real"},
		{Name: "tol", Result: "Real"},
	}
	if diff := cmp.Diff(want, doc.Declarations); diff != "" {
		t.Fatalf("declarations mismatch (-want +got):\n%s", diff)
	}

	a, err := metrics.NewFormulaAnalyzer(doc)
	require.NoError(t, err)
	assert.Equal(t, 3, a.CountVariables())
	assert.Equal(t, 3, a.CountConstraints())
	assert.Equal(t, 3, a.CountUniqueRealConstants(), "0.5, 2 and 0 in a real logic")
	assert.Equal(t, 4, a.ASTDepth())
	if diff := cmp.Diff(map[string]int{"and": 2, ">=": 2, "<=": 2, "+": 2, ">": 1}, a.OperatorStatistics()); diff != "" {
		t.Fatalf("operator statistics mismatch (-want +got):\n%s", diff)
	}
}

func TestNumeralsFollowLogic(t *testing.T) {
	tests := []struct {
		logic string
		real  bool
	}{
		{logic: "QF_LRA", real: true},
		{logic: "QF_NRA", real: true},
		{logic: "QF_RDL", real: true},
		{logic: "QF_LIA", real: false},
		{logic: "QF_AUFLIRA", real: false},
		{logic: "QF_BV", real: false},
	}
	for _, tt := range tests {
		t.Run(tt.logic, func(t *testing.T) {
			doc := parseWith(t, nil, "(set-logic "+tt.logic+")(declare-const x Int)(assert (> x 3))")
			three := doc.Assertions[0].Children[1]
			assert.Equal(t, tt.real, three.IsRealConstant())
		})
	}
}

func TestLetSharesSubterms(t *testing.T) {
	doc := parseWith(t, nil, `
		(declare-const x Int)
		(declare-const y Int)
		(assert (let ((s (+ x y))) (and (> s 0) (< s 5))))`)
	root := doc.Assertions[0]
	require.True(t, root.IsAnd())
	require.Same(t, root.Children[0].Children[0], root.Children[1].Children[0])

	a, err := metrics.NewFormulaAnalyzer(doc)
	require.NoError(t, err)
	assert.Equal(t, 2, a.OperatorStatistics()["+"])
	assert.Equal(t, 2, a.CountVariables())
}

func TestLetBindingsAreParallel(t *testing.T) {
	doc := parseWith(t, nil, `
		(declare-const x Int)
		(declare-const y Int)
		(assert (let ((x y) (y x)) (> x y)))`)
	assert.Equal(t, "(> y x)", doc.Assertions[0].String())
}

func TestDefineFunExpandsBySubstitution(t *testing.T) {
	m := formula.NewManager()
	doc := parseWith(t, m, `
		(declare-const x Int)
		(define-fun inc ((a Int)) Int (+ a 1))
		(define-fun ten () Int 10)
		(assert (> (inc x) ten))
		(assert (> (inc (inc x)) x))`)

	x := m.Symbol("x", "Int")
	one := m.Int(big.NewInt(1))
	require.Same(t, m.Apply(">", m.Apply("+", x, one), m.Int(big.NewInt(10))), doc.Assertions[0])
	require.Same(t, m.Apply(">", m.Apply("+", m.Apply("+", x, one), one), x), doc.Assertions[1])
	assert.Len(t, doc.Declarations, 1, "defined functions are not declarations")
}

func TestMacroDoesNotCaptureCallSiteBindings(t *testing.T) {
	doc := parseWith(t, nil, `
		(declare-const x Int)
		(declare-const y Int)
		(define-fun addx ((a Int)) Int (+ a x))
		(assert (let ((x y)) (= (addx x) 0)))`)
	assert.Equal(t, "(= (+ y x) 0)", doc.Assertions[0].String())
}

func TestQuantifiersBindVariables(t *testing.T) {
	doc := parseWith(t, nil, `
		(declare-const x Int)
		(assert (forall ((z Int) (w Int)) (=> (> z w) (> z x))))`)
	root := doc.Assertions[0]
	assert.Equal(t, formula.OpForall, root.Op)
	require.Len(t, root.Bound, 2)
	assert.Equal(t, "z", root.Bound[0].Name)

	a, err := metrics.NewFormulaAnalyzer(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, a.CountVariables())
}

func TestMacroArgumentsStayFreeUnderBodyQuantifiers(t *testing.T) {
	doc := parseWith(t, nil, `
		(declare-const x Real)
		(define-fun f ((y Real)) Bool (exists ((x Real)) (> x y)))
		(assert (f x))`)
	root := doc.Assertions[0]
	require.Len(t, root.Bound, 1)
	gt := root.Children[0]
	assert.NotSame(t, gt.Children[0], gt.Children[1])
	assert.Same(t, root.Bound[0], gt.Children[0])

	a, err := metrics.NewFormulaAnalyzer(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, a.CountVariables())
	assert.Equal(t, 1, a.CountUniqueSymbols())
	assert.Greater(t, a.EstimatedComplexity(), 0.0)
}

func TestAnnotationsAndIndexedTerms(t *testing.T) {
	doc := parseWith(t, nil, `
		(set-logic QF_BV)
		(declare-const b (_ BitVec 8))
		(assert (! (= ((_ extract 3 0) b) #b0101) :named low-nibble))
		(assert (bvult b (_ bv200 8)))
		(assert (= ((_ zero_extend 8) b) #x00ff))`)
	require.Len(t, doc.Assertions, 3)
	assert.Equal(t, "(= (extract b) #b0101)", doc.Assertions[0].String())
	assert.Equal(t, "(_ bv200 8)", doc.Assertions[1].Children[1].Value)
	assert.Equal(t, "zero_extend", doc.Assertions[2].Children[0].Op)
	assert.Equal(t, "(_ BitVec 8)", doc.Declarations[0].Result)
}

func TestUninterpretedFunctionsAreOperators(t *testing.T) {
	doc := parseWith(t, nil, `
		(declare-sort U 0)
		(declare-fun f (U) U)
		(declare-const a U)
		(assert (= (f (f a)) a))`)
	a, err := metrics.NewFormulaAnalyzer(doc)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"=": 1, "f": 2}, a.OperatorStatistics())
	assert.Equal(t, []string{"U"}, doc.Declarations[0].Args)
}

func TestPushPop(t *testing.T) {
	doc := parseWith(t, nil, `
		(declare-const x Int)
		(assert (> x 0))
		(push 1)
		(declare-const y Int)
		(assert (> y x))
		(pop 1)
		(assert (< x 9))`)
	require.Len(t, doc.Assertions, 2)
	assert.Equal(t, "(< x 9)", doc.Assertions[1].String())
	assert.Len(t, doc.Declarations, 1)

	_, err := Parse(strings.NewReader(`(push 1)(declare-const y Int)(pop 1)(assert (> y 0))`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `undeclared symbol "y"`)
}

func TestPushManyLevels(t *testing.T) {
	doc := parseWith(t, nil, `
		(declare-const x Int)
		(push 2000000000)
		(declare-const y Int)
		(assert (> y x))
		(pop 1)
		(declare-const y Bool)
		(assert y)
		(pop 1999999999)
		(assert (> x 0))`)
	require.Len(t, doc.Assertions, 1)
	assert.Equal(t, "(> x 0)", doc.Assertions[0].String())
	assert.Len(t, doc.Declarations, 1)

	_, err := Parse(strings.NewReader(`(push 3)(pop 2)(pop 2)`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pop 2 exceeds the 1 pushed levels")
}

func TestExitStopsProcessing(t *testing.T) {
	doc := parseWith(t, nil, `(declare-const p Bool)(assert p)(exit)(assert (undefined))`)
	assert.Len(t, doc.Assertions, 1)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		line    int
		col     int
		wantMsg string
	}{
		{name: "undeclared symbol", src: "(set-logic QF_LIA)\n(declare-const p Int)\n(assert (> q 0))", line: 3, col: 12, wantMsg: `undeclared symbol "q"`},
		{name: "unbalanced", src: "(assert (> 1 0)", line: 1, col: 1, wantMsg: "unclosed list"},
		{name: "unsupported command", src: "(declare-datatypes () ())", line: 1, col: 1, wantMsg: `unsupported command "declare-datatypes"`},
		{name: "redeclared", src: "(declare-const p Int)\n(declare-const p Int)", line: 2, col: 16, wantMsg: `symbol "p" is already declared`},
		{name: "arity", src: "(declare-fun f (Int) Int)(assert (= (f 1 2) 0))", line: 1, col: 37, wantMsg: "f expects 1 arguments, got 2"},
		{name: "unknown function", src: "(declare-const p Int)(assert (frob p))", line: 1, col: 30, wantMsg: `undeclared function "frob"`},
		{name: "pop too far", src: "(pop 2)", line: 1, col: 1, wantMsg: "pop 2 exceeds the 0 pushed levels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.line, pe.Line)
			assert.Equal(t, tt.col, pe.Col)
			assert.Contains(t, pe.Msg, tt.wantMsg)
		})
	}
}

func TestReadAndParseErrorsAreDistinct(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.smt2")
	_, err := LoadFile(missing)
	var re *ReadError
	require.True(t, errors.As(err, &re))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	var pe *ParseError
	assert.False(t, errors.As(err, &pe))

	bad := filepath.Join(t.TempDir(), "bad.smt2")
	require.NoError(t, os.WriteFile(bad, []byte("(assert (> x 0))"), 0o644))
	_, err = LoadFile(bad)
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, bad, pe.Path)
	assert.False(t, errors.As(err, &re))
	assert.Contains(t, err.Error(), bad+":1:12")
}
