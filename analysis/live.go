// Package analysis collects the remaining framework analyses of §4.7:
// instances of the generic dataflow framework (dataflow.Lattice) rather
// than bespoke solvers, mirroring how the points-to analysis itself is
// wired in package pointer.
package analysis

import (
	"github.com/viant/ilanalysis/cfg"
	"github.com/viant/ilanalysis/dataflow"
	"github.com/viant/ilanalysis/il"
)

// LiveVariables is a backward analysis: lattice = set of variables live on
// exit from a node, gen = used variables, kill = defined variables (§4.7).
type LiveVariables struct{}

func (LiveVariables) Initial(n *cfg.CFGNode) il.VarSet { return il.VarSet{} }

func (LiveVariables) Compare(a, b il.VarSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func (LiveVariables) Join(a, b il.VarSet) il.VarSet { return a.Union(b) }

// Flow computes gen ∪ (out \ kill) by walking n's instructions in reverse
// program order, so a variable used before being redefined in the same
// block is still live going in, while one defined before its first use in
// the block is not.
func (LiveVariables) Flow(n *cfg.CFGNode, out il.VarSet) il.VarSet {
	live := out.Clone()
	for i := len(n.Instructions) - 1; i >= 0; i-- {
		ins := n.Instructions[i]
		for name := range ins.ModifiedVariables() {
			delete(live, name)
		}
		live = live.Union(ins.UsedVariables())
	}
	return live
}

// SolveLiveVariables runs the backward worklist solver of §4.4 with the
// LiveVariables lattice. dataflow.Result's field names are direction-
// agnostic (In/Out describe the generic join/flow roles, not "before" and
// "after" in program order): SolveBackward's inputs are a node's
// successors, so Result.In here holds each node's real live-OUT set (joined
// from successors) and Result.Out holds each node's real live-IN set (Flow
// applied on top of live-out) — the opposite of what the field names
// suggest for a forward analysis. LiveAt accounts for this.
func SolveLiveVariables(g *cfg.ControlFlowGraph) *dataflow.Result[il.VarSet] {
	return dataflow.SolveBackward(g, LiveVariables{})
}

// LiveAt reports whether v is live immediately before n executes (real
// live-IN), which SolveBackward's Result stores under Out per the note
// above.
func LiveAt(result *dataflow.Result[il.VarSet], n *cfg.CFGNode, v il.Variable) bool {
	set, ok := result.Out[n]
	if !ok || v == nil {
		return false
	}
	return set.Contains(v.Name())
}
