package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ilanalysis/il"
)

var intType = &il.Type{Name: "int"}

func method(name string, instrs ...il.Instruction) *il.MethodBody {
	return &il.MethodBody{
		Method:       &il.MethodRef{Name: name, DeclaringType: &il.Type{Name: "T"}},
		Instructions: instrs,
	}
}

func TestLinearMethodNoBranches(t *testing.T) {
	load := &il.Load{ResultVar: &il.LocalVariable{VarName: "x"}, Source: &il.Constant{Payload: 1}}
	ret := &il.Return{}
	ret.SetOffset(1)
	m := method("Linear", load, ret)

	g, err := Build(m, BuildOptions{Mode: Normal})
	require.NoError(t, err)
	require.Len(t, g.Nodes, 5) // Entry, Exit, NormalExit, ExceptionalExit, 1 block
	block := g.NodeAt(il.NewLabel(0))
	require.NotNil(t, block)
	assert.Contains(t, block.SuccessorNodes(), g.NormalExit)
	assert.Contains(t, g.Entry.SuccessorNodes(), block)
}

func TestBranchCreatesTwoBlocksAndFallthrough(t *testing.T) {
	cond := &il.ConditionalBranch{Condition: il.Unknown, TrueLabel: il.NewLabel(2)}
	cond.SetOffset(0)
	thenI := &il.Load{ResultVar: &il.LocalVariable{VarName: "a"}, Source: il.Unknown}
	thenI.SetOffset(1)
	elseI := &il.Return{}
	elseI.SetOffset(2)
	m := method("Branch", cond, thenI, elseI)

	g, err := Build(m, BuildOptions{Mode: Normal})
	require.NoError(t, err)

	header := g.NodeAt(il.NewLabel(0))
	require.NotNil(t, header)
	require.Len(t, header.Instructions, 1)

	trueBlock := g.NodeAt(il.NewLabel(2))
	require.NotNil(t, trueBlock)

	fallBlock := g.NodeAt(il.NewLabel(1))
	require.NotNil(t, fallBlock)

	assert.ElementsMatch(t, header.SuccessorNodes(), []*CFGNode{trueBlock, fallBlock})
}

func TestExceptionalEdgeFromProtectedBlockToHandler(t *testing.T) {
	throwI := &il.Throw{Value: il.Unknown}
	throwI.SetOffset(0)
	catchI := &il.CatchMarker{ExceptionType: intType}
	catchI.SetOffset(1)
	ret := &il.Return{}
	ret.SetOffset(2)

	m := method("TryCatch", throwI, catchI, ret)
	m.Exceptions = il.ExceptionInformation{Protected: []il.ProtectedBlock{
		{
			StartLabel: il.NewLabel(0),
			EndLabel:   il.NewLabel(1),
			Handler:    il.NewCatch(il.NewLabel(1), il.NewLabel(2), intType),
		},
	}}

	g, err := Build(m, BuildOptions{Mode: Exceptional})
	require.NoError(t, err)

	tryBlock := g.NodeAt(il.NewLabel(0))
	handlerBlock := g.NodeAt(il.NewLabel(1))
	require.NotNil(t, tryBlock)
	require.NotNil(t, handlerBlock)

	found := false
	for _, e := range tryBlock.Successors {
		if e.To == handlerBlock && e.Exceptional {
			found = true
		}
	}
	assert.True(t, found, "expected exceptional edge from protected block to handler header")
	assert.Contains(t, tryBlock.SuccessorNodes(), g.ExceptionalExit)
}

func TestDominatorsOnDiamond(t *testing.T) {
	cond := &il.ConditionalBranch{Condition: il.Unknown, TrueLabel: il.NewLabel(2)}
	cond.SetOffset(0)
	thenI := &il.UnconditionalBranch{Target: il.NewLabel(3)}
	thenI.SetOffset(1)
	elseI := &il.UnconditionalBranch{Target: il.NewLabel(3)}
	elseI.SetOffset(2)
	join := &il.Return{}
	join.SetOffset(3)

	m := method("Diamond", cond, thenI, elseI, join)
	g, err := Build(m, BuildOptions{Mode: Normal})
	require.NoError(t, err)

	ComputeDominators(g)

	joinBlock := g.NodeAt(il.NewLabel(3))
	header := g.NodeAt(il.NewLabel(0))
	thenBlock := g.NodeAt(il.NewLabel(1))
	require.NotNil(t, joinBlock)
	assert.Equal(t, header, joinBlock.ImmediateDominator)
	assert.Contains(t, thenBlock.DominanceFrontier, joinBlock)
}

func TestNaturalLoopDiscovery(t *testing.T) {
	header := &il.ConditionalBranch{Condition: il.Unknown, TrueLabel: il.NewLabel(2)}
	header.SetOffset(0)
	body := &il.UnconditionalBranch{Target: il.NewLabel(0)}
	body.SetOffset(1)
	exit := &il.Return{}
	exit.SetOffset(2)

	m := method("Loop", header, body, exit)
	g, err := Build(m, BuildOptions{Mode: Normal})
	require.NoError(t, err)

	ComputeDominators(g)
	loops := FindLoops(g)
	require.Len(t, loops, 1)

	headerBlock := g.NodeAt(il.NewLabel(0))
	bodyBlock := g.NodeAt(il.NewLabel(1))
	assert.Equal(t, headerBlock, loops[0].Header)
	assert.Contains(t, loops[0].Nodes, bodyBlock)
}
