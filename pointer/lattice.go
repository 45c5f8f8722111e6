package pointer

import (
	"fmt"

	"github.com/viant/ilanalysis/cfg"
	"github.com/viant/ilanalysis/dataflow"
	"github.com/viant/ilanalysis/il"
)

// MethodInput pairs a method's IR body with its already-built CFG, the unit
// the points-to analysis solves over (§4.6).
type MethodInput struct {
	Body  *il.MethodBody
	Graph *cfg.ControlFlowGraph
}

// latticeAdapter satisfies dataflow.Lattice[*Graph] (§4.4/§4.6): Initial is
// the Entry PTG of InitialGraph at the graph's entry node and the empty PTG
// (bottom) everywhere else, Compare is graph_equals, Join is graph_union,
// and Flow runs every instruction's transfer function in sequence.
type latticeAdapter struct {
	analysis *Analysis
	entry    *cfg.CFGNode
	initial  *Graph
}

// NewLattice adapts analysis to dataflow.Lattice[*Graph] for a single
// method's CFG, seeding the Entry value once via InitialGraph so every node
// of the same solver run starts from the same parameter nodes.
func NewLattice(analysis *Analysis, input *MethodInput) dataflow.Lattice[*Graph] {
	return &latticeAdapter{
		analysis: analysis,
		entry:    input.Graph.Entry,
		initial:  analysis.InitialGraph(input.Body),
	}
}

func (l *latticeAdapter) Initial(n *cfg.CFGNode) *Graph {
	if n == l.entry {
		return l.initial
	}
	return New()
}

func (l *latticeAdapter) Compare(a, b *Graph) bool {
	return a.Equals(b)
}

// Join computes graph_union, cloning a first so neither input is mutated —
// the dataflow worklist solver treats every lattice value as immutable
// between calls. A kind mismatch between two nodes sharing an id is an
// I-ident contract violation; dataflow.Lattice.Join has no error channel,
// so it surfaces as a panic rather than a returned error (§7 "contract
// violations halt the run rather than silently producing unsound
// results").
func (l *latticeAdapter) Join(a, b *Graph) *Graph {
	out := a.Clone()
	if err := out.Union(b); err != nil {
		panic(fmt.Errorf("points-to join: %w", err))
	}
	return out
}

func (l *latticeAdapter) Flow(n *cfg.CFGNode, in *Graph) *Graph {
	return l.analysis.Flow(n, in)
}

// Solve runs the forward points-to analysis to a fixpoint over input's CFG
// (§4.6).
func Solve(analysis *Analysis, input *MethodInput) *dataflow.Result[*Graph] {
	return dataflow.SolveForward(input.Graph, NewLattice(analysis, input))
}
