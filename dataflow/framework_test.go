package dataflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ilanalysis/cfg"
	"github.com/viant/ilanalysis/dataflow"
	"github.com/viant/ilanalysis/il"
)

// setLattice computes a simple "reaches" forward analysis: In[n] is the
// union of all node ids reaching n (Entry reaches itself), a minimal stand-in
// for reaching-definitions style analyses (§4.7).
type setLattice struct{}

func (setLattice) Initial(n *cfg.CFGNode) map[int]struct{} {
	s := map[int]struct{}{}
	if n.Kind == cfg.Entry {
		s[n.ID] = struct{}{}
	}
	return s
}

func (setLattice) Compare(a, b map[int]struct{}) bool {
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

func (setLattice) Join(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func (setLattice) Flow(n *cfg.CFGNode, in map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(in)+1)
	for k := range in {
		out[k] = struct{}{}
	}
	out[n.ID] = struct{}{}
	return out
}

func buildDiamond(t *testing.T) *cfg.ControlFlowGraph {
	t.Helper()
	cond := &il.ConditionalBranch{Condition: il.Unknown, TrueLabel: il.NewLabel(2)}
	cond.SetOffset(0)
	thenI := &il.UnconditionalBranch{Target: il.NewLabel(3)}
	thenI.SetOffset(1)
	elseI := &il.UnconditionalBranch{Target: il.NewLabel(3)}
	elseI.SetOffset(2)
	join := &il.Return{}
	join.SetOffset(3)

	body := &il.MethodBody{
		Method:       &il.MethodRef{Name: "Diamond"},
		Instructions: []il.Instruction{cond, thenI, elseI, join},
	}
	g, err := cfg.Build(body, cfg.BuildOptions{Mode: cfg.Normal})
	require.NoError(t, err)
	return g
}

func TestSolveForwardReachesFixpoint(t *testing.T) {
	g := buildDiamond(t)
	result := dataflow.SolveForward[map[int]struct{}](g, setLattice{})

	joinBlock := g.NodeAt(il.NewLabel(3))
	require.NotNil(t, joinBlock)
	// Entry reaches every node, including the join block.
	_, reached := result.In[joinBlock][g.Entry.ID]
	assert.True(t, reached)

	// Re-running the flow function on the fixpoint input is a no-op,
	// matching §8's "rerunning one step is a no-op" law.
	again := setLattice{}.Flow(joinBlock, result.In[joinBlock])
	assert.True(t, setLattice{}.Compare(again, result.Out[joinBlock]))
}
