package formula

import (
	"math/big"
	"strconv"
	"strings"
	"sync"
)

// Manager creates hash-consed nodes: asking twice for the same term returns
// the same *Node, so shared sub-expressions form a DAG.
type Manager struct {
	mu     sync.Mutex
	nodes  map[string]*Node
	nextID uint64
}

// NewManager returns an empty node manager.
func NewManager() *Manager {
	return &Manager{nodes: make(map[string]*Node)}
}

// Len returns the number of distinct nodes created so far.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}

func (m *Manager) intern(key string, build func() *Node) *Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[key]; ok {
		return n
	}
	m.nextID++
	n := build()
	n.id = m.nextID
	m.nodes[key] = n
	return n
}

// Symbol returns the symbol node for name and sort.
func (m *Manager) Symbol(name, sort string) *Node {
	key := "s\x00" + name + "\x00" + sort
	return m.intern(key, func() *Node {
		return &Node{Kind: KindSymbol, Name: name, Sort: sort}
	})
}

// Variable returns a new symbol node for a variable bound by one quantifier.
// Unlike Symbol it is never shared, so a bound x is a different node from a
// declared constant x and from the x of any other binder.
func (m *Manager) Variable(name, sort string) *Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	n := &Node{id: m.nextID, Kind: KindSymbol, Name: name, Sort: sort}
	m.nodes["v\x00"+strconv.FormatUint(n.id, 10)] = n
	return n
}

// Bool returns the boolean constant b.
func (m *Manager) Bool(b bool) *Node {
	return m.constant(ConstBool, strconv.FormatBool(b))
}

// Int returns the integer constant v.
func (m *Manager) Int(v *big.Int) *Node {
	return m.constant(ConstInt, v.String())
}

// Real returns the real constant v, normalised so equal values share a node.
func (m *Manager) Real(v *big.Rat) *Node {
	return m.constant(ConstReal, v.RatString())
}

// BitVec returns a bit-vector literal in its source notation (#b.. or #x..).
func (m *Manager) BitVec(text string) *Node {
	return m.constant(ConstBitVec, text)
}

// StringLit returns the string literal s.
func (m *Manager) StringLit(s string) *Node {
	return m.constant(ConstString, s)
}

func (m *Manager) constant(kind ConstKind, value string) *Node {
	key := "c\x00" + strconv.Itoa(int(kind)) + "\x00" + value
	return m.intern(key, func() *Node {
		return &Node{Kind: KindConstant, Const: kind, Value: value}
	})
}

// Apply returns the operator node op(children...).
func (m *Manager) Apply(op string, children ...*Node) *Node {
	return m.binder(op, nil, children)
}

// Quantifier returns a binder node such as (forall ((x Int)) body).
func (m *Manager) Quantifier(op string, bound []*Node, body *Node) *Node {
	return m.binder(op, bound, []*Node{body})
}

func (m *Manager) binder(op string, bound, children []*Node) *Node {
	var b strings.Builder
	b.WriteString("o\x00")
	b.WriteString(op)
	for _, v := range bound {
		b.WriteString("\x00b")
		b.WriteString(strconv.FormatUint(v.id, 10))
	}
	for _, c := range children {
		b.WriteString("\x00")
		b.WriteString(strconv.FormatUint(c.id, 10))
	}
	return m.intern(b.String(), func() *Node {
		n := &Node{Kind: KindOperator, Op: op}
		if len(children) > 0 {
			n.Children = append([]*Node(nil), children...)
		}
		if len(bound) > 0 {
			n.Bound = append([]*Node(nil), bound...)
		}
		return n
	})
}
