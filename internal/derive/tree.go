package derive

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"

	"covgram/internal/coverage"
	"covgram/internal/grammar"
)

// NodeID indexes a node in its Tree arena.
type NodeID int

// NoNode is the zero reference.
const NoNode NodeID = -1

// Node is one derivation tree node. Leaves carry terminal text in Symbol.
type Node struct {
	Symbol   grammar.Symbol
	Children []NodeID
	Expanded bool
	Leaf     bool
	Alt      int // chosen alternative, -1 until expanded
}

// Tree owns its nodes; parents reference children by id only.
type Tree struct {
	nodes []Node
	root  NodeID
}

func newTree(start grammar.Symbol) *Tree {
	t := &Tree{root: NoNode}
	t.root = t.add(Node{Symbol: start, Alt: -1})
	return t
}

func (t *Tree) add(n Node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) Root() NodeID {
	return t.root
}

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Len is the number of nodes, leaves included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// walk visits nodes in preorder without recursion.
func (t *Tree) walk(visit func(id NodeID, n *Node)) {
	if t.root == NoNode {
		return
	}
	stack := arraystack.New()
	stack.Push(t.root)
	for !stack.Empty() {
		v, _ := stack.Pop()
		id := v.(NodeID)
		n := &t.nodes[id]
		visit(id, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack.Push(n.Children[i])
		}
	}
}

// Leaves returns the non-empty terminal leaves in order.
func (t *Tree) Leaves() []string {
	var out []string
	t.walk(func(_ NodeID, n *Node) {
		if n.Leaf && n.Symbol != "" {
			out = append(out, string(n.Symbol))
		}
	})
	return out
}

// Flatten renders the derived input. Terminal mode concatenates leaves;
// word mode joins them with a single space.
func (t *Tree) Flatten(mode coverage.Mode) string {
	leaves := t.Leaves()
	if mode == coverage.ModeWord {
		return strings.Join(leaves, " ")
	}
	return strings.Join(leaves, "")
}

// Runs returns the terminal runs of id's direct children. Contiguous leaves
// form one run (space-joined in word mode, where leaves are single tokens);
// every other child ends the current run.
func (t *Tree) Runs(id NodeID, mode coverage.Mode) []string {
	sep := ""
	if mode == coverage.ModeWord {
		sep = " "
	}
	var (
		runs []string
		cur  []string
	)
	for _, c := range t.nodes[id].Children {
		child := &t.nodes[c]
		if child.Leaf {
			cur = append(cur, string(child.Symbol))
			continue
		}
		if len(cur) > 0 {
			runs = append(runs, strings.Join(cur, sep))
			cur = cur[:0]
		}
	}
	if len(cur) > 0 {
		runs = append(runs, strings.Join(cur, sep))
	}
	return runs
}

// Keys computes the coverage units of an expanded node from its children.
// They equal the units of the production the node was expanded with.
func (t *Tree) Keys(id NodeID, mode coverage.Mode) ([]coverage.Unit, error) {
	n := &t.nodes[id]
	if n.Leaf || !n.Expanded {
		return nil, fmt.Errorf("derive: node %d (%s) is not an expanded nonterminal", id, n.Symbol)
	}
	return coverage.RunKeys(mode, n.Symbol, t.Runs(id, mode))
}

// Symbols renders the nonterminals of the derivation in preorder, separated
// by spaces. The <empty> marker is omitted.
func (t *Tree) Symbols() string {
	var parts []string
	t.walk(func(_ NodeID, n *Node) {
		if n.Leaf || n.Symbol == grammar.Empty {
			return
		}
		parts = append(parts, string(n.Symbol))
	})
	return strings.Join(parts, " ")
}

// String renders the tree as an indented outline, for traces and tests.
func (t *Tree) String() string {
	var sb strings.Builder
	depth := make(map[NodeID]int, len(t.nodes))
	t.walk(func(id NodeID, n *Node) {
		d := depth[id]
		for _, c := range n.Children {
			depth[c] = d + 1
		}
		sb.WriteString(strings.Repeat("  ", d))
		if n.Leaf {
			sb.WriteString("\"" + string(n.Symbol) + "\"")
		} else {
			sb.WriteString(string(n.Symbol))
		}
		sb.WriteByte('\n')
	})
	return sb.String()
}
