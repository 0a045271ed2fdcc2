// Package compiler lowers condition-tree event definitions into the flat,
// slot-indexed instruction streams executed by the target VM.
//
// The pipeline runs strictly forward: restart classification, then tree
// resolution and validation, then linearization with slot allocation.
// Compilation is all-or-nothing per event; no partial output is ever
// produced.
package compiler

import (
	"slices"

	"github.com/quelaag/evsc/internal/ir"
)

// Node is the sealed condition/statement variant type. Only TestNode,
// GroupNode, AwaitNode, TerminatorNode, and the internal misuse marker
// implement it; the linearizer matches exhaustively.
type Node interface {
	node() // sealed
}

// TestNode is a single named test bound to concrete arguments, with the
// per-test negation bit.
type TestNode struct {
	Name    string
	Args    []ir.Value
	Negated bool
}

func (*TestNode) node() {}

// GroupNode combines an ordered sequence of children with AND or OR
// semantics. Held groups are persistent: their slot stays live until the
// event's terminator and the VM does not reset them between ticks.
type GroupNode struct {
	Kind     ir.GroupKind
	Children []Node
	Held     bool
}

func (*GroupNode) node() {}

// AwaitNode wraps a condition as a suspension predicate. Only valid at
// statement level; inside a condition tree it is a usage error.
type AwaitNode struct {
	Cond Node
}

func (*AwaitNode) node() {}

// TerminatorNode ends the event (OpEnd) or parks it for restart
// (OpRestart).
type TerminatorNode struct {
	Op ir.Opcode
}

func (*TerminatorNode) node() {}

// invalidNode records a constructor applied to a node kind it cannot act
// on, such as Not around an await or a terminator. It survives tree
// building so validation can report the misuse at its location instead of
// silently dropping the operation.
type invalidNode struct {
	Op     string // the misapplied constructor, "not" or "hold"
	Target string // what it was applied to
}

func (*invalidNode) node() {}

func describeTarget(n Node) string {
	switch node := n.(type) {
	case *AwaitNode:
		return "await"
	case *TerminatorNode:
		if node.Op == ir.OpRestart {
			return "restart terminator"
		}
		return "end terminator"
	case *invalidNode:
		return node.Target
	default:
		return "node"
	}
}

// Test builds a leaf test node. The name must belong to the registry
// vocabulary; this is checked at compile time, not construction time.
func Test(name string, args ...ir.Value) Node {
	return &TestNode{Name: name, Args: slices.Clone(args)}
}

// AllOf builds an AND group over the children.
func AllOf(children ...Node) Node {
	return &GroupNode{Kind: ir.GroupAND, Children: slices.Clone(children)}
}

// AnyOf builds an OR group over the children.
func AnyOf(children ...Node) Node {
	return &GroupNode{Kind: ir.GroupOR, Children: slices.Clone(children)}
}

// Not negates a condition. Negation is pushed to the leaves immediately:
// on a test it toggles the negation bit, on a group it applies De Morgan
// (flips the combinator and negates every child). The rewrite is
// structural and deterministic, so identical inputs always yield the same
// normalized tree. Applying Not to anything that is not a condition, such
// as an await or a terminator, marks the node invalid and compilation
// reports a usage error at its position.
func Not(n Node) Node {
	switch node := n.(type) {
	case *TestNode:
		return &TestNode{Name: node.Name, Args: slices.Clone(node.Args), Negated: !node.Negated}
	case *GroupNode:
		flipped := ir.GroupAND
		if node.Kind == ir.GroupAND {
			flipped = ir.GroupOR
		}
		children := make([]Node, len(node.Children))
		for i, child := range node.Children {
			children[i] = Not(child)
		}
		return &GroupNode{Kind: flipped, Children: children, Held: node.Held}
	case *invalidNode:
		return node
	default:
		return &invalidNode{Op: "not", Target: describeTarget(n)}
	}
}

// Hold marks a condition persistent. A held leaf is wrapped in a
// single-child AND group, since persistence is a property of a condition
// group register. Holding anything that is not a condition marks the node
// invalid and compilation reports a usage error at its position.
func Hold(n Node) Node {
	switch node := n.(type) {
	case *GroupNode:
		return &GroupNode{Kind: node.Kind, Children: slices.Clone(node.Children), Held: true}
	case *TestNode:
		return &GroupNode{Kind: ir.GroupAND, Children: []Node{n}, Held: true}
	case *invalidNode:
		return node
	default:
		return &invalidNode{Op: "hold", Target: describeTarget(n)}
	}
}

// Await wraps a condition as a blocking wait: the event suspends until the
// condition evaluates true, re-checked once per scheduler tick.
func Await(cond Node) Node {
	return &AwaitNode{Cond: cond}
}

// End terminates the event.
func End() Node { return &TerminatorNode{Op: ir.OpEnd} }

// Restart terminates the event and parks it awaiting a restart trigger.
func Restart() Node { return &TerminatorNode{Op: ir.OpRestart} }
