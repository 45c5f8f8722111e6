package il

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var intType = &Type{Name: "int"}

func TestLocalVariableReplace(t *testing.T) {
	x := &LocalVariable{VarName: "x", Typ: intType}
	y := &LocalVariable{VarName: "y", Typ: intType}

	replaced := x.Replace(x, y)
	assert.Equal(t, VarSet{"y": y}, replaced.Variables())
}

func TestSubstitutionLaw(t *testing.T) {
	x := &LocalVariable{VarName: "x", Typ: intType}
	y := &LocalVariable{VarName: "y", Typ: intType}
	other := &LocalVariable{VarName: "z", Typ: intType}

	field := &FieldRef{Name: "f", FieldType: intType}
	access := &InstanceFieldAccess{Instance: x, Field: field}

	composite := &ArrayElementAccess{Array: other, Indices: []Value{access}}

	before := composite.Variables()
	require.True(t, before.Contains("x"))

	after := composite.Replace(x, y)
	got := after.Variables()

	want := before.Clone()
	delete(want, "x")
	want["y"] = y

	assert.Equal(t, want, got)
	// no mutable aliasing: original composite is untouched
	assert.True(t, composite.Variables().Contains("x"))
}

func TestInertValuesIgnoreReplace(t *testing.T) {
	c := &Constant{Payload: 42, Typ: intType}
	x := &LocalVariable{VarName: "x"}
	y := &LocalVariable{VarName: "y"}
	assert.Same(t, Value(c), c.Replace(x, y))
	assert.Equal(t, VarSet{}, c.Variables())

	assert.Equal(t, Unknown, Unknown.Replace(x, y))
}

func TestDerivedVariableNaming(t *testing.T) {
	origin := &LocalVariable{VarName: "v", Typ: intType, IsParam: true}
	zero := &DerivedVariable{Origin: origin, Index: 0}
	one := &DerivedVariable{Origin: origin, Index: 1}

	assert.Equal(t, "v", zero.Name())
	assert.True(t, zero.IsParameter())
	assert.Equal(t, "v_1", one.Name())
	assert.False(t, one.IsParameter())
	assert.Equal(t, intType, one.Type())
}

func TestReferenceAndDereferenceTypes(t *testing.T) {
	x := &LocalVariable{VarName: "x", Typ: intType}
	ref := &Reference{Target: x}
	assert.True(t, ref.Type().IsPointer)
	assert.Equal(t, intType, ref.Type().ElementType)

	deref := &Dereference{Pointer: ref}
	assert.Equal(t, intType, deref.Type())
}

func TestArrayElementType(t *testing.T) {
	elemType := intType
	arrType := &Type{Name: "[]int", ElementType: elemType}
	arr := &LocalVariable{VarName: "arr", Typ: arrType}
	idx := &Constant{Payload: 0, Typ: intType}
	access := &ArrayElementAccess{Array: arr, Indices: []Value{idx}}
	assert.Equal(t, elemType, access.Type())
}

func TestBinaryOpDisplayQuirk(t *testing.T) {
	// Spec §9 open question: Ge and Lt intentionally render like Gt/Le.
	assert.Equal(t, ">", Ge.String())
	assert.Equal(t, "<=", Lt.String())
	assert.Equal(t, "<=", Le.String())
	assert.Equal(t, ">", Gt.String())
}
