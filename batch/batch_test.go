package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ilanalysis/il"
)

// fixedWalker returns a fixed assembly list, bypassing the filesystem.
type fixedWalker struct {
	assemblies []*il.AssemblyRef
}

func (f fixedWalker) Walk(ctx context.Context, root string) ([]*il.AssemblyRef, error) {
	return f.assemblies, nil
}

// fixedSource returns a fixed method list per assembly name.
type fixedSource struct {
	methods map[string][]*il.MethodRef
}

func (f fixedSource) Methods(assembly *il.AssemblyRef) ([]*il.MethodRef, error) {
	return f.methods[assembly.Name], nil
}

// stubLoader hands back a raw method body keyed by method name, with a
// single trivial instruction so the downstream pipeline has something to
// build a CFG from.
type stubLoader struct{}

func (stubLoader) LoadMethod(assembly *il.AssemblyRef, method *il.MethodRef) (*il.MethodBody, error) {
	load := &il.Load{ResultVar: &il.LocalVariable{VarName: "x"}, Source: &il.Constant{Payload: 1}}
	ret := &il.Return{}
	ret.SetOffset(1)
	return &il.MethodBody{
		Method:       method,
		Assembly:     assembly,
		Instructions: []il.Instruction{load, ret},
	}, nil
}

// identityDisassembler treats the raw body as already in TAC form.
type identityDisassembler struct{}

func (identityDisassembler) Disassemble(raw *il.MethodBody) (*il.MethodBody, error) {
	return raw, nil
}

func TestDedupeNewestKeepsHighestVersionPerName(t *testing.T) {
	old := &il.AssemblyRef{Name: "App", Version: "1.0.0"}
	newer := &il.AssemblyRef{Name: "App", Version: "1.4.2"}
	other := &il.AssemblyRef{Name: "Lib"}

	out := dedupeNewest([]*il.AssemblyRef{old, other, newer})

	require.Len(t, out, 2)
	assert.Equal(t, "App", out[0].Name)
	assert.Equal(t, "1.4.2", out[0].Version)
	assert.Equal(t, "Lib", out[1].Name)
}

func TestRunnerAnalyzesEveryDiscoveredMethod(t *testing.T) {
	assembly := &il.AssemblyRef{Name: "App"}
	method := &il.MethodRef{Name: "Main", DeclaringType: &il.Type{Name: "T"}}

	runner := NewRunner(
		stubLoader{},
		identityDisassembler{},
		nil,
		fixedSource{methods: map[string][]*il.MethodRef{"App": {method}}},
		fixedWalker{assemblies: []*il.AssemblyRef{assembly}},
	)

	results, err := runner.Run(context.Background(), "/irrelevant")
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.NoError(t, r.Err)
	assert.Equal(t, "App", r.Assembly.Name)
	assert.Equal(t, "Main", r.Method.Name)
	require.NotNil(t, r.Graph)
	require.NotNil(t, r.Solved)
}

func TestRunnerRecordsPerMethodFailureWithoutAbortingBatch(t *testing.T) {
	assembly := &il.AssemblyRef{Name: "App"}
	good := &il.MethodRef{Name: "Good", DeclaringType: &il.Type{Name: "T"}}
	bad := &il.MethodRef{Name: "Bad", DeclaringType: &il.Type{Name: "T"}}

	runner := NewRunner(
		failingLoader{failFor: "Bad"},
		identityDisassembler{},
		nil,
		fixedSource{methods: map[string][]*il.MethodRef{"App": {good, bad}}},
		fixedWalker{assemblies: []*il.AssemblyRef{assembly}},
	)

	results, err := runner.Run(context.Background(), "/irrelevant")
	require.NoError(t, err)
	require.Len(t, results, 2)

	var sawGood, sawBad bool
	for _, r := range results {
		switch r.Method.Name {
		case "Good":
			sawGood = true
			assert.NoError(t, r.Err)
		case "Bad":
			sawBad = true
			assert.Error(t, r.Err)
		}
	}
	assert.True(t, sawGood)
	assert.True(t, sawBad)
}

// TestRunnerCachesIdenticalMethodBodies verifies that two methods whose
// disassembled instruction streams are byte-identical (stubLoader produces
// the same two instructions for every method) share one solved analysis via
// Runner's ContentHash-keyed cache, rather than each re-running the solver.
func TestRunnerCachesIdenticalMethodBodies(t *testing.T) {
	assembly := &il.AssemblyRef{Name: "App"}
	first := &il.MethodRef{Name: "First", DeclaringType: &il.Type{Name: "T"}}
	second := &il.MethodRef{Name: "Second", DeclaringType: &il.Type{Name: "T"}}

	runner := NewRunner(
		stubLoader{},
		identityDisassembler{},
		nil,
		fixedSource{methods: map[string][]*il.MethodRef{"App": {first, second}}},
		fixedWalker{assemblies: []*il.AssemblyRef{assembly}},
	)

	results, err := runner.Run(context.Background(), "/irrelevant")
	require.NoError(t, err)
	require.Len(t, results, 2)

	byName := map[string]*MethodResult{}
	for _, r := range results {
		require.NoError(t, r.Err)
		byName[r.Method.Name] = r
	}

	require.NotZero(t, byName["First"].Hash)
	assert.Equal(t, byName["First"].Hash, byName["Second"].Hash)
	assert.Same(t, byName["First"].Solved, byName["Second"].Solved)
}

type failingLoader struct {
	failFor string
}

func (f failingLoader) LoadMethod(assembly *il.AssemblyRef, method *il.MethodRef) (*il.MethodBody, error) {
	if method.Name == f.failFor {
		return nil, errors.New("method not loadable")
	}
	return stubLoader{}.LoadMethod(assembly, method)
}
