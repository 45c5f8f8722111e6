package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/viant/ilanalysis/il"
	"github.com/viant/ilanalysis/pointer"
)

// TestSnapshotRoundTripsThroughYAML exercises pointer.Graph.Snapshot as a
// golden-test fixture: marshal the solved exit graph to YAML, unmarshal it
// back, and confirm the round trip is lossless (SPEC_FULL.md's "YAML
// snapshot (de)serialization ... for debugging and golden tests").
func TestSnapshotRoundTripsThroughYAML(t *testing.T) {
	x, y := localVar("x"), localVar("y")
	field := &il.FieldRef{Name: "f", FieldType: &il.Type{Name: "T"}}

	input := linear("Snapshot",
		&il.CreateObject{ResultVar: x, Type_: x.Type()},
		&il.Store{Target: &il.InstanceFieldAccess{Instance: x, Field: field}, Source: x},
		&il.Load{ResultVar: y, Source: x},
		&il.Return{},
	)

	result := pointer.Solve(&pointer.Analysis{}, input)
	exit := input.Graph.NormalExit
	want := result.In[exit].Snapshot()

	out, err := yaml.Marshal(want)
	require.NoError(t, err)

	var got pointer.GraphSnapshot
	require.NoError(t, yaml.Unmarshal(out, &got))

	assert.Equal(t, want, &got)
	assert.Contains(t, got.Roots, "x")
	assert.Contains(t, got.Roots, "y")
}
