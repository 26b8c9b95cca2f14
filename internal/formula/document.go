package formula

// Document is an ordered sequence of top-level assertions.
type Document struct {
	Logic string
	// Assertions holds one root per assert command, in source order.
	Assertions []*Node
	// Declarations lists declared constants and functions in source order.
	Declarations []Declaration
}

// Declaration is a declared constant (no arguments) or function symbol.
type Declaration struct {
	Name   string
	Args   []string
	Result string
}

// IsConstant reports whether d declares a nullary symbol.
func (d Declaration) IsConstant() bool {
	return len(d.Args) == 0
}

// NewDocument returns a document over the given assertion roots.
func NewDocument(assertions ...*Node) *Document {
	return &Document{Assertions: assertions}
}

// Conjunction returns the single formula equivalent to all assertions: the
// lone assertion itself, or an and over all of them. It returns nil for an
// empty document.
func (d *Document) Conjunction(m *Manager) *Node {
	switch len(d.Assertions) {
	case 0:
		return nil
	case 1:
		return d.Assertions[0]
	default:
		return m.Apply(OpAnd, d.Assertions...)
	}
}
