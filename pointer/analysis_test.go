package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ilanalysis/cfg"
	"github.com/viant/ilanalysis/il"
	"github.com/viant/ilanalysis/pointer"
)

func localVar(name string) *il.LocalVariable {
	return &il.LocalVariable{VarName: name, Typ: &il.Type{Name: "T"}}
}

func linear(method string, instrs ...il.Instruction) *pointer.MethodInput {
	for i, ins := range instrs {
		ins.(interface{ SetOffset(int) }).SetOffset(i)
	}
	body := &il.MethodBody{Method: &il.MethodRef{Name: method}, Instructions: instrs}
	g, err := cfg.Build(body, cfg.BuildOptions{Mode: cfg.Normal})
	if err != nil {
		panic(err)
	}
	return &pointer.MethodInput{Body: body, Graph: g}
}

func TestAllocationFlowsToCopy(t *testing.T) {
	x, y := localVar("x"), localVar("y")
	input := linear("Alloc",
		&il.CreateObject{ResultVar: x, Type_: x.Type()},
		&il.Load{ResultVar: y, Source: x},
		&il.Return{},
	)

	result := pointer.Solve(&pointer.Analysis{}, input)
	exit := input.Graph.NormalExit

	xTargets := result.In[exit].GetTargets(x)
	yTargets := result.In[exit].GetTargets(y)
	require.Len(t, xTargets, 1)
	require.Len(t, yTargets, 1)
	assert.Equal(t, xTargets[0].ID, yTargets[0].ID)
	assert.Equal(t, pointer.KindObject, xTargets[0].Kind)
}

func TestNullDisplacedByLaterFieldStore(t *testing.T) {
	p, n, o := localVar("p"), localVar("n"), localVar("o")
	field := &il.FieldRef{Name: "f", FieldType: &il.Type{Name: "T"}}

	input := linear("NullThenObject",
		&il.Load{ResultVar: n, Source: &il.Constant{Payload: nil}},
		&il.CreateObject{ResultVar: p, Type_: p.Type()},
		&il.Store{Target: &il.InstanceFieldAccess{Instance: p, Field: field}, Source: n},
		&il.CreateObject{ResultVar: o, Type_: o.Type()},
		&il.Store{Target: &il.InstanceFieldAccess{Instance: p, Field: field}, Source: o},
		&il.Return{},
	)

	result := pointer.Solve(&pointer.Analysis{}, input)
	exit := input.Graph.NormalExit

	pNode := result.In[exit].GetTargets(p)[0]
	fieldTargets := pNode.TargetsOf("f")
	require.Len(t, fieldTargets, 1)
	assert.NotEqual(t, pointer.NullID, fieldTargets[0])
}

func TestPhiJoinsBothBranchAllocations(t *testing.T) {
	x := localVar("x")
	a, b := localVar("a"), localVar("b")

	cond := &il.ConditionalBranch{Condition: il.Unknown}
	allocA := &il.CreateObject{ResultVar: a, Type_: a.Type()}
	jumpToJoin := &il.UnconditionalBranch{}
	allocB := &il.CreateObject{ResultVar: b, Type_: b.Type()}
	phi := &il.Phi{ResultVar: x, Operands: []il.Value{a, b}}
	ret := &il.Return{}

	instrs := []il.Instruction{cond, allocA, jumpToJoin, allocB, phi, ret}
	for i, ins := range instrs {
		ins.(interface{ SetOffset(int) }).SetOffset(i)
	}
	// cond falls through to allocA/jumpToJoin on false, jumps straight to
	// allocB (offset 3) on true; both paths converge on the phi at offset 4.
	cond.TrueLabel = allocB.Label()
	jumpToJoin.Target = phi.Label()

	body := &il.MethodBody{Method: &il.MethodRef{Name: "Phi"}, Instructions: instrs}
	g, err := cfg.Build(body, cfg.BuildOptions{Mode: cfg.Normal})
	require.NoError(t, err)
	input := &pointer.MethodInput{Body: body, Graph: g}

	result := pointer.Solve(&pointer.Analysis{}, input)
	exit := g.NormalExit

	xTargets := result.In[exit].GetTargets(x)
	assert.Len(t, xTargets, 2)
}

func TestDelegateConstructionAndRetargeting(t *testing.T) {
	d, src := localVar("d"), localVar("src")
	inst := localVar("inst")
	method := &il.MethodRef{Name: "Handler", IsVirtual: true}
	ctor := &il.MethodRef{Name: ".ctor", IsConstructor: true}

	// d := &Type::Handler; src := d (a second variable sharing the delegate
	// node, standing in for the constructor's unbound-method argument);
	// d.ctor(inst, src) retargets d's delegate node's instance to inst and
	// re-derives d's target from whatever delegate node(s) src carries.
	input := linear("Delegate",
		&il.Load{ResultVar: d, Source: &il.StaticMethodReference{Method: method}},
		&il.Load{ResultVar: src, Source: d},
		&il.MethodCall{ResultVar: nil, Method: ctor, Receiver: d, Args: []il.Value{inst, src}},
		&il.Return{},
	)

	result := pointer.Solve(&pointer.Analysis{}, input)
	exit := input.Graph.NormalExit

	dTargets := result.In[exit].GetTargets(d)
	require.Len(t, dTargets, 1)
	assert.Equal(t, pointer.KindDelegate, dTargets[0].Kind)
	assert.Equal(t, inst, dTargets[0].Instance)
}

func TestLoopReachesFixpoint(t *testing.T) {
	x := localVar("x")
	cond := &il.ConditionalBranch{Condition: il.Unknown, TrueLabel: il.NewLabel(0)}
	alloc := &il.CreateObject{ResultVar: x, Type_: x.Type()}
	backEdge := &il.UnconditionalBranch{Target: il.NewLabel(0)}
	ret := &il.Return{}

	instrs := []il.Instruction{cond, alloc, backEdge, ret}
	for i, ins := range instrs {
		ins.(interface{ SetOffset(int) }).SetOffset(i)
	}
	body := &il.MethodBody{Method: &il.MethodRef{Name: "Loop"}, Instructions: instrs}
	g, err := cfg.Build(body, cfg.BuildOptions{Mode: cfg.Normal})
	require.NoError(t, err)
	input := &pointer.MethodInput{Body: body, Graph: g}

	analysis := &pointer.Analysis{}
	result := pointer.Solve(analysis, input)
	header := g.NodeAt(il.NewLabel(0))
	require.NotNil(t, header)

	// Re-running Flow on the fixpoint In value is a no-op (§8).
	again := analysis.Flow(header, result.In[header])
	assert.True(t, again.Equals(result.Out[header]))
}
