// Package formula models logical formulas as rooted DAGs. Identical sub-terms
// built through the same Manager are the same *Node.
package formula

import (
	"math/big"
	"strings"
)

// Kind tags a node.
type Kind int

const (
	KindOperator Kind = iota
	KindSymbol
	KindConstant
)

func (k Kind) String() string {
	switch k {
	case KindOperator:
		return "operator"
	case KindSymbol:
		return "symbol"
	default:
		return "constant"
	}
}

// ConstKind tags a constant literal.
type ConstKind int

const (
	ConstBool ConstKind = iota
	ConstInt
	ConstReal
	ConstBitVec
	ConstString
)

// Node is a formula DAG node.
type Node struct {
	id uint64

	Kind Kind
	// Op is the operator symbol for KindOperator.
	Op string
	// Name and Sort identify a KindSymbol node.
	Name string
	Sort string
	// Const and Value describe a KindConstant node. Value is canonical: reals
	// are normalised rationals, so 0.5 and 0.50 compare equal.
	Const ConstKind
	Value string

	Children []*Node
	// Bound lists the variables bound by a quantifier node.
	Bound []*Node
}

// ID is unique per node within its Manager.
func (n *Node) ID() uint64 {
	return n.id
}

func (n *Node) IsSymbol() bool   { return n.Kind == KindSymbol }
func (n *Node) IsConstant() bool { return n.Kind == KindConstant }
func (n *Node) IsOperator() bool { return n.Kind == KindOperator }

// IsAnd reports whether n is a conjunction.
func (n *Node) IsAnd() bool {
	return n.Kind == KindOperator && n.Op == OpAnd
}

// IsRealConstant reports whether n is a real-valued literal.
func (n *Node) IsRealConstant() bool {
	return n.Kind == KindConstant && n.Const == ConstReal
}

// Rat returns the value of a real or integer constant.
func (n *Node) Rat() (*big.Rat, bool) {
	if n.Kind != KindConstant || (n.Const != ConstReal && n.Const != ConstInt) {
		return nil, false
	}
	return new(big.Rat).SetString(n.Value)
}

// String renders n as SMT-LIB text.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.Kind {
	case KindSymbol:
		b.WriteString(n.Name)
	case KindConstant:
		switch n.Const {
		case ConstString:
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(n.Value, `"`, `""`))
			b.WriteByte('"')
		case ConstReal:
			b.WriteString(realText(n.Value))
		default:
			b.WriteString(n.Value)
		}
	default:
		if len(n.Children) == 0 && len(n.Bound) == 0 {
			b.WriteString(n.Op)
			return
		}
		b.WriteByte('(')
		b.WriteString(n.Op)
		if len(n.Bound) > 0 {
			b.WriteString(" (")
			for i, v := range n.Bound {
				if i > 0 {
					b.WriteByte(' ')
				}
				b.WriteByte('(')
				b.WriteString(v.Name)
				b.WriteByte(' ')
				b.WriteString(v.Sort)
				b.WriteByte(')')
			}
			b.WriteByte(')')
		}
		for _, c := range n.Children {
			b.WriteByte(' ')
			c.write(b)
		}
		b.WriteByte(')')
	}
}

// realText renders a canonical rational as a decimal when it is exact.
func realText(value string) string {
	r, ok := new(big.Rat).SetString(value)
	if !ok {
		return value
	}
	if r.IsInt() {
		return r.Num().String() + ".0"
	}
	if prec, exact := r.FloatPrec(); exact {
		return r.FloatString(prec)
	}
	return "(/ " + r.Num().String() + " " + r.Denom().String() + ")"
}

// Operator symbols with special meaning to the analyzers.
const (
	OpAnd    = "and"
	OpForall = "forall"
	OpExists = "exists"
)
