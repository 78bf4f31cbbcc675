// Package budget models hierarchical budget trees and folds them into
// operating, capital, transfer, debt and other spending totals.
package budget

import "fmt"

// NodeType discriminates the budget tree variants.
type NodeType int

// Node variants.
const (
	NodeEmpty NodeType = iota // neither amounts nor children; contributes zero
	NodeLeaf
	NodeParent
)

func (t NodeType) String() string {
	switch t {
	case NodeLeaf:
		return "leaf"
	case NodeParent:
		return "parent"
	}
	return "empty"
}

// Kind classifies how a leaf's spending is rolled up.
type Kind string

// Spending kinds.
const (
	KindProgram  Kind = "program"
	KindTransfer Kind = "transfer"
	KindDebt     Kind = "debt"
	KindOther    Kind = "other"
)

// ParseKind returns the kind named by s. An empty string is KindProgram.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindProgram:
		return KindProgram, nil
	case KindTransfer, KindDebt, KindOther:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown spending kind %q", s)
}

// Node is a budget tree node. Leaves carry a 2024/2025 amount pair,
// parents carry children. Amount is the derived display amount set by
// Transform and ProcessRevenue.
type Node struct {
	Type         NodeType
	Name         string
	Link         string
	Amount       float64
	Amount2024   float64
	Amount2025   float64
	Kind         Kind
	CapitalShare float64
	Children     []Node
}

// LeafOption customizes a leaf built by Leaf.
type LeafOption func(*Node)

// WithCapitalShare sets the fraction of a program leaf classified as capital.
func WithCapitalShare(share float64) LeafOption {
	return func(n *Node) { n.CapitalShare = share }
}

// WithKind sets the leaf's spending kind.
func WithKind(k Kind) LeafOption {
	return func(n *Node) { n.Kind = k }
}

// WithLink attaches a source link to the node.
func WithLink(url string) LeafOption {
	return func(n *Node) { n.Link = url }
}

// Leaf builds a program leaf, adjusted by opts.
func Leaf(name string, a2024, a2025 float64, opts ...LeafOption) Node {
	n := Node{
		Type:       NodeLeaf,
		Name:       name,
		Amount2024: a2024,
		Amount2025: a2025,
		Kind:       KindProgram,
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// Transfer builds a transfer leaf.
func Transfer(name string, a2024, a2025 float64) Node {
	return Leaf(name, a2024, a2025, WithKind(KindTransfer))
}

// Debt builds a debt-charge leaf.
func Debt(name string, a2024, a2025 float64) Node {
	return Leaf(name, a2024, a2025, WithKind(KindDebt))
}

// Parent builds a node holding children.
func Parent(name string, children ...Node) Node {
	return Node{Type: NodeParent, Name: name, Children: children}
}

// ParentWithLink builds a parent node with a source link.
func ParentWithLink(name, link string, children ...Node) Node {
	n := Parent(name, children...)
	n.Link = link
	return n
}

// Walk calls fn for n and every descendant in depth-first order.
func (n Node) Walk(fn func(depth int, n Node)) {
	n.walk(0, fn)
}

func (n Node) walk(depth int, fn func(int, Node)) {
	fn(depth, n)
	for _, c := range n.Children {
		c.walk(depth+1, fn)
	}
}

// Leaves returns all leaf descendants of n, including n itself if it is a leaf.
func (n Node) Leaves() []Node {
	var out []Node
	n.Walk(func(_ int, c Node) {
		if c.Type == NodeLeaf {
			out = append(out, c)
		}
	})
	return out
}
