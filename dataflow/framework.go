// Package dataflow implements the generic monotone forward/backward
// dataflow framework of §4.4: a worklist solver parameterized by a
// caller-supplied lattice and transfer function, independent of what the
// lattice values actually represent (live-variable sets, type maps, points-to
// graphs, ...).
package dataflow

import (
	"github.com/viant/ilanalysis/cfg"
	"github.com/viant/ilanalysis/util"
)

// Lattice is the caller-supplied contract a solver run needs: an initial
// value per node, equality, least-upper-bound join, and a per-node transfer
// function (§4.4).
type Lattice[L any] interface {
	// Initial returns the starting value for node n — usually bottom,
	// except at Entry (forward) or Exit (backward) which typically start
	// at the analysis' boundary value.
	Initial(n *cfg.CFGNode) L
	// Compare reports whether a and b are equal in the lattice order;
	// the solver uses it to detect a fixpoint.
	Compare(a, b L) bool
	// Join computes the least upper bound of a and b.
	Join(a, b L) L
	// Flow is the transfer function: given node n's input value, produce
	// its output value.
	Flow(n *cfg.CFGNode, in L) L
}

// Result holds the solved In/Out value at every node.
type Result[L any] struct {
	In  map[*cfg.CFGNode]L
	Out map[*cfg.CFGNode]L
}

// SolveForward runs the worklist algorithm of §4.4 over g in the forward
// direction: In[n] joins Out[p] for every predecessor p, Out[n] = Flow(n,
// In[n]).
func SolveForward[L any](g *cfg.ControlFlowGraph, lattice Lattice[L]) *Result[L] {
	return solve(g.Nodes, lattice, func(n *cfg.CFGNode) []*cfg.CFGNode { return n.Predecessors },
		func(n *cfg.CFGNode) []*cfg.CFGNode { return n.SuccessorNodes() })
}

// SolveBackward runs the worklist algorithm with predecessors and
// successors swapped (§4.4 "Backward solver. Symmetric...").
func SolveBackward[L any](g *cfg.ControlFlowGraph, lattice Lattice[L]) *Result[L] {
	return solve(g.Nodes, lattice, func(n *cfg.CFGNode) []*cfg.CFGNode { return n.SuccessorNodes() },
		func(n *cfg.CFGNode) []*cfg.CFGNode { return n.Predecessors })
}

// solve is shared by SolveForward/SolveBackward; inputs(n) gives the nodes
// whose Out joins to form n's In, and outputs(n) gives the nodes to
// re-enqueue when n's Out changes.
func solve[L any](nodes []*cfg.CFGNode, lattice Lattice[L], inputs, outputs func(*cfg.CFGNode) []*cfg.CFGNode) *Result[L] {
	in := make(map[*cfg.CFGNode]L, len(nodes))
	out := make(map[*cfg.CFGNode]L, len(nodes))

	for _, n := range nodes {
		in[n] = lattice.Initial(n)
		out[n] = lattice.Flow(n, in[n])
	}

	worklist := newQueue(nodes)
	for !worklist.empty() {
		n := worklist.pop()

		preds := inputs(n)
		var newIn L
		has := false
		for _, p := range preds {
			if !has {
				newIn = out[p]
				has = true
				continue
			}
			newIn = lattice.Join(newIn, out[p])
		}
		if !has {
			newIn = lattice.Initial(n)
		}

		if has && lattice.Compare(newIn, in[n]) {
			continue
		}
		if has {
			in[n] = newIn
		}

		newOut := lattice.Flow(n, in[n])
		if lattice.Compare(newOut, out[n]) {
			continue
		}
		out[n] = newOut
		for _, s := range outputs(n) {
			worklist.push(s)
		}
	}

	return &Result[L]{In: in, Out: out}
}

// queue is a FIFO worklist with O(1) membership testing, so pushing a node
// already pending is a no-op rather than a duplicate entry. Membership is
// tracked by node id in a util.BitVector rather than a pointer-keyed map,
// since cfg.CFGNode.ID is already the small dense non-negative index the
// spec's "subset bitvectors" utility is meant for.
type queue struct {
	items  []*cfg.CFGNode
	queued *util.BitVector
}

func newQueue(seed []*cfg.CFGNode) *queue {
	q := &queue{items: make([]*cfg.CFGNode, len(seed)), queued: util.NewBitVector()}
	copy(q.items, seed)
	for _, n := range seed {
		q.queued.Insert(n.ID)
	}
	return q
}

func (q *queue) empty() bool { return len(q.items) == 0 }

func (q *queue) pop() *cfg.CFGNode {
	n := q.items[0]
	q.items = q.items[1:]
	q.queued.Remove(n.ID)
	return n
}

func (q *queue) push(n *cfg.CFGNode) {
	if q.queued.Has(n.ID) {
		return
	}
	q.queued.Insert(n.ID)
	q.items = append(q.items, n)
}
