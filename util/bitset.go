// Package util collects the small, analysis-agnostic data structures the
// rest of this module builds on: a subset bitvector and a generic graph
// visitor.
package util

import "golang.org/x/tools/container/intsets"

// BitVector is a subset of the non-negative integers, backed by
// golang.org/x/tools/container/intsets.Sparse — the same sparse bitset the
// reference points-to analysis in the retrieval pack (golang.org/x/tools/go/pointer)
// uses for its nodeset. It gives the dataflow solver's worklist an
// O(popcount) set representation instead of a dense bool slice,
// which matters once a method's node space runs into the thousands.
type BitVector struct {
	bits intsets.Sparse
}

// NewBitVector returns an empty vector, optionally pre-populated with elems.
func NewBitVector(elems ...int) *BitVector {
	v := &BitVector{}
	for _, e := range elems {
		v.bits.Insert(e)
	}
	return v
}

// Insert adds i to the set, reporting whether it was newly added.
func (v *BitVector) Insert(i int) bool { return v.bits.Insert(i) }

// Remove removes i from the set, reporting whether it was present.
func (v *BitVector) Remove(i int) bool { return v.bits.Remove(i) }

// Has reports whether i is a member.
func (v *BitVector) Has(i int) bool { return v.bits.Has(i) }

// Len returns the number of members.
func (v *BitVector) Len() int { return v.bits.Len() }

// IsEmpty reports whether the set has no members.
func (v *BitVector) IsEmpty() bool { return v.bits.IsEmpty() }

// Clone returns an independent copy of v.
func (v *BitVector) Clone() *BitVector {
	out := &BitVector{}
	out.bits.Copy(&v.bits)
	return out
}

// UnionWith merges other into v in place, reporting whether v changed —
// the return value doubles as the "did OUT change" signal the dataflow
// worklist solver needs (§4.4).
func (v *BitVector) UnionWith(other *BitVector) bool {
	return v.bits.UnionWith(&other.bits)
}

// IntersectionWith reduces v to v ∩ other in place, reporting whether v
// changed.
func (v *BitVector) IntersectionWith(other *BitVector) bool {
	return v.bits.IntersectionWith(&other.bits)
}

// DifferenceWith reduces v to v \ other in place, reporting whether v
// changed.
func (v *BitVector) DifferenceWith(other *BitVector) bool {
	return v.bits.DifferenceWith(&other.bits)
}

// Equals reports set equality.
func (v *BitVector) Equals(other *BitVector) bool { return v.bits.Equals(&other.bits) }

// Elems returns the members in ascending order.
func (v *BitVector) Elems() []int {
	return v.bits.AppendTo(nil)
}

// ForEach calls f for every member in ascending order.
func (v *BitVector) ForEach(f func(int)) {
	for _, e := range v.Elems() {
		f(e)
	}
}
