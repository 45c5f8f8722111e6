// Package cfg builds control-flow graphs from il.MethodBody instruction
// streams, including exception-handler regions, and computes dominators and
// natural loops over the result (§3.4, §4.2, §4.3).
package cfg

import (
	"fmt"

	"github.com/viant/ilanalysis/il"
)

// NodeKind discriminates the reserved nodes (Entry/Exit/NormalExit/
// ExceptionalExit) from ordinary basic blocks. Ids 0-3 are reserved; basic
// blocks start at 4 (§3.4).
type NodeKind int

const (
	Entry NodeKind = iota
	Exit
	NormalExit
	ExceptionalExit
	BasicBlock
)

func (k NodeKind) String() string {
	switch k {
	case Entry:
		return "Entry"
	case Exit:
		return "Exit"
	case NormalExit:
		return "NormalExit"
	case ExceptionalExit:
		return "ExceptionalExit"
	case BasicBlock:
		return "BasicBlock"
	default:
		return "Unknown"
	}
}

const (
	entryID           = 0
	exitID            = 1
	normalExitID      = 2
	exceptionalExitID = 3
	firstBlockID      = 4
)

// Edge records a successor edge and whether it represents exception
// propagation to a handler header rather than normal control flow (§4.2
// step 5).
type Edge struct {
	To          *CFGNode
	Exceptional bool
}

// CFGNode is one node of a ControlFlowGraph: either a reserved Entry/Exit
// node or a basic block of consecutive instructions (§3.4).
type CFGNode struct {
	ID           int
	Kind         NodeKind
	Instructions []il.Instruction

	Predecessors []*CFGNode
	Successors   []Edge

	ImmediateDominator *CFGNode
	ImmediateDominated []*CFGNode
	DominanceFrontier   map[*CFGNode]struct{}

	ForwardIndex  int
	BackwardIndex int
}

func newNode(id int, kind NodeKind) *CFGNode {
	return &CFGNode{ID: id, Kind: kind, DominanceFrontier: make(map[*CFGNode]struct{})}
}

// Label identifies the node for diagnostics: the reserved kind's name, or
// the first instruction's canonical label for a basic block.
func (n *CFGNode) Label() string {
	if n.Kind != BasicBlock {
		return n.Kind.String()
	}
	if len(n.Instructions) == 0 {
		return fmt.Sprintf("BB%d", n.ID)
	}
	return n.Instructions[0].Label()
}

// StartOffset returns the offset of the node's leader instruction; reserved
// nodes have no instructions and return -1.
func (n *CFGNode) StartOffset() int {
	if len(n.Instructions) == 0 {
		return -1
	}
	return n.Instructions[0].Offset()
}

// addSuccessor links n -> to, recording the reciprocal predecessor edge. It
// is idempotent for (to, exceptional) pairs to keep rebuild-from-scratch
// construction safe to call defensively.
func (n *CFGNode) addSuccessor(to *CFGNode, exceptional bool) {
	for _, e := range n.Successors {
		if e.To == to && e.Exceptional == exceptional {
			return
		}
	}
	n.Successors = append(n.Successors, Edge{To: to, Exceptional: exceptional})
	to.Predecessors = append(to.Predecessors, n)
}

// SuccessorNodes returns every successor node regardless of edge kind.
func (n *CFGNode) SuccessorNodes() []*CFGNode {
	out := make([]*CFGNode, len(n.Successors))
	for i, e := range n.Successors {
		out[i] = e.To
	}
	return out
}
