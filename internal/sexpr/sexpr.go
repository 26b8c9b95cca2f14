// Package sexpr reads the S-expression syntax shared by PDDL and SMT-LIB.
package sexpr

import (
	"fmt"
	"strings"
)

// Kind classifies an expression.
type Kind int

const (
	List Kind = iota
	Symbol
	Keyword
	Numeral
	Decimal
	Binary
	Hex
	String
)

func (k Kind) String() string {
	switch k {
	case List:
		return "list"
	case Symbol:
		return "symbol"
	case Keyword:
		return "keyword"
	case Numeral:
		return "numeral"
	case Decimal:
		return "decimal"
	case Binary:
		return "binary"
	case Hex:
		return "hexadecimal"
	case String:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Pos is a 1-based line/column position in the source.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Expr is either an atom (Text set) or a list (Items set).
type Expr struct {
	Kind  Kind
	Text  string
	Items []*Expr
	Pos   Pos
}

// IsList reports whether e is a list.
func (e *Expr) IsList() bool {
	return e != nil && e.Kind == List
}

// IsAtom reports whether e is a non-list expression.
func (e *Expr) IsAtom() bool {
	return e != nil && e.Kind != List
}

// Is reports whether e is the symbol or keyword text.
func (e *Expr) Is(text string) bool {
	return e != nil && (e.Kind == Symbol || e.Kind == Keyword) && e.Text == text
}

// Head returns the text of the first item of a list whose first item is a
// symbol or keyword, or "" otherwise.
func (e *Expr) Head() string {
	if !e.IsList() || len(e.Items) == 0 {
		return ""
	}
	first := e.Items[0]
	if first.Kind != Symbol && first.Kind != Keyword {
		return ""
	}
	return first.Text
}

// Args returns the list items after the head.
func (e *Expr) Args() []*Expr {
	if !e.IsList() || len(e.Items) == 0 {
		return nil
	}
	return e.Items[1:]
}

// String renders e back to S-expression text.
func (e *Expr) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *Expr) write(b *strings.Builder) {
	if e == nil {
		return
	}
	switch e.Kind {
	case List:
		b.WriteByte('(')
		for i, item := range e.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			item.write(b)
		}
		b.WriteByte(')')
	case String:
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(e.Text, `"`, `""`))
		b.WriteByte('"')
	default:
		b.WriteString(e.Text)
	}
}

// SyntaxError reports malformed S-expression input.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Errorf builds a SyntaxError anchored at the position of e.
func Errorf(e *Expr, format string, args ...any) *SyntaxError {
	var pos Pos
	if e != nil {
		pos = e.Pos
	}
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
