package expr

import (
	"fmt"

	"worldedit.ai/internal/sim/tile"
)

// Predicate is a pure test over a tile and its coordinate.
type Predicate func(t tile.Tile, x, y int) bool

// Always matches every tile.
func Always() Predicate {
	return func(tile.Tile, int, int) bool { return true }
}

func complement(p Predicate) Predicate {
	return func(t tile.Tile, x, y int) bool { return !p(t, x, y) }
}

// Node is an expression tree node. Each node owns its children.
type Node interface {
	exprNode()
	String() string
}

type Test struct {
	Text string
	Pred Predicate
}

type And struct{ Left, Right Node }
type Or struct{ Left, Right Node }
type Xor struct{ Left, Right Node }
type Not struct{ Operand Node }

func (*Test) exprNode() {}
func (*And) exprNode()  {}
func (*Or) exprNode()   {}
func (*Xor) exprNode()  {}
func (*Not) exprNode()  {}

func (n *Test) String() string { return n.Text }
func (n *And) String() string  { return fmt.Sprintf("(%s && %s)", n.Left, n.Right) }
func (n *Or) String() string   { return fmt.Sprintf("(%s || %s)", n.Left, n.Right) }
func (n *Xor) String() string  { return fmt.Sprintf("(%s ^ %s)", n.Left, n.Right) }
func (n *Not) String() string  { return fmt.Sprintf("!%s", n.Operand) }

// Evaluate runs the tree against one tile. Both sides of a binary node are
// always evaluated.
func Evaluate(n Node, t tile.Tile, x, y int) bool {
	switch n := n.(type) {
	case *Test:
		return n.Pred(t, x, y)
	case *And:
		l, r := Evaluate(n.Left, t, x, y), Evaluate(n.Right, t, x, y)
		return l && r
	case *Or:
		l, r := Evaluate(n.Left, t, x, y), Evaluate(n.Right, t, x, y)
		return l || r
	case *Xor:
		l, r := Evaluate(n.Left, t, x, y), Evaluate(n.Right, t, x, y)
		return l != r
	case *Not:
		return !Evaluate(n.Operand, t, x, y)
	default:
		panic(fmt.Sprintf("expr: unknown node %T", n))
	}
}

// Compile turns a tree into a predicate. A nil tree matches everything.
func Compile(n Node) Predicate {
	if n == nil {
		return Always()
	}
	return func(t tile.Tile, x, y int) bool { return Evaluate(n, t, x, y) }
}
