package metrics

import (
	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/formula"
)

// postOrder returns every node reachable from root exactly once, children
// before parents. It walks with an explicit stack and a visited set keyed by
// node identity.
func postOrder(root *formula.Node) []*formula.Node {
	if root == nil {
		return nil
	}
	type frame struct {
		node *formula.Node
		next int
	}
	var order []*formula.Node
	visited := map[*formula.Node]struct{}{root: {}}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.node.Children) {
			child := top.node.Children[top.next]
			top.next++
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			stack = append(stack, frame{node: child})
			continue
		}
		order = append(order, top.node)
		stack = stack[:len(stack)-1]
	}
	return order
}

// walkUnique calls fn once per distinct node reachable from any of roots.
func walkUnique(roots []*formula.Node, fn func(*formula.Node)) {
	visited := make(map[*formula.Node]struct{})
	var stack []*formula.Node
	for _, root := range roots {
		if root == nil {
			continue
		}
		stack = append(stack, root)
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			fn(n)
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, n.Children[i])
			}
		}
	}
}

// pathCounts returns, for every node of order (a post-order from root), the
// number of distinct root-to-node paths. That is the number of times the node
// is written out when the DAG is printed as a tree. Counts saturate at
// math.MaxInt.
func pathCounts(order []*formula.Node) map[*formula.Node]int {
	counts := make(map[*formula.Node]int, len(order))
	if len(order) == 0 {
		return counts
	}
	counts[order[len(order)-1]] = 1
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		c := counts[n]
		for _, child := range n.Children {
			counts[child] = addSat(counts[child], c)
		}
	}
	return counts
}

// depth returns the length of the longest root-to-leaf path. Leaves (symbols
// and constants) have depth 1; an operator has 1 + the deepest child, so an
// operator without children also has depth 1.
func depth(order []*formula.Node) int {
	if len(order) == 0 {
		return 0
	}
	d := make(map[*formula.Node]int, len(order))
	for _, n := range order {
		if n.Kind != formula.KindOperator {
			d[n] = 1
			continue
		}
		deepest := 0
		for _, child := range n.Children {
			deepest = max(deepest, d[child])
		}
		d[n] = 1 + deepest
	}
	return d[order[len(order)-1]]
}

// freeSymbols returns the symbol nodes occurring free below root. Symbols
// bound by a quantifier are removed at that quantifier.
func freeSymbols(order []*formula.Node) map[*formula.Node]struct{} {
	if len(order) == 0 {
		return nil
	}
	root := order[len(order)-1]

	binders := false
	for _, n := range order {
		if len(n.Bound) > 0 {
			binders = true
			break
		}
	}
	if !binders {
		out := make(map[*formula.Node]struct{})
		for _, n := range order {
			if n.Kind == formula.KindSymbol {
				out[n] = struct{}{}
			}
		}
		return out
	}

	free := make(map[*formula.Node]map[*formula.Node]struct{}, len(order))
	for _, n := range order {
		switch {
		case n.Kind == formula.KindSymbol:
			free[n] = map[*formula.Node]struct{}{n: {}}
		case len(n.Children) == 1 && len(n.Bound) == 0:
			free[n] = free[n.Children[0]]
		default:
			set := make(map[*formula.Node]struct{})
			for _, child := range n.Children {
				for v := range free[child] {
					set[v] = struct{}{}
				}
			}
			for _, v := range n.Bound {
				delete(set, v)
			}
			free[n] = set
		}
	}
	return free[root]
}
