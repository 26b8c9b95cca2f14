package smtlib

import (
	"errors"
	"fmt"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/sexpr"
)

// ReadError reports that the input could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("read smt-lib input: %v", e.Err)
	}
	return fmt.Sprintf("read smt-lib file %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ParseError reports malformed or unsupported SMT-LIB text.
type ParseError struct {
	Path string
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Col)
	if e.Path != "" {
		loc = e.Path + ":" + loc
	}
	return fmt.Sprintf("parse smt-lib %s: %s", loc, e.Msg)
}

func toParseError(path string, err error) error {
	var syn *sexpr.SyntaxError
	if errors.As(err, &syn) {
		return &ParseError{Path: path, Line: syn.Pos.Line, Col: syn.Pos.Col, Msg: syn.Msg}
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Path = path
		return pe
	}
	return &ParseError{Path: path, Msg: err.Error()}
}
