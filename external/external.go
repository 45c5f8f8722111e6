// Package external states the interfaces of the three collaborators the
// analysis core treats as opaque producers (§1, §6): the BytecodeLoader,
// the TypeResolver, and the Disassembler. None is implemented here — the
// core only depends on these contracts.
package external

import "github.com/viant/ilanalysis/il"

// BytecodeLoader produces a MethodBody in raw stack-machine form: ordered
// bytecode instructions with offsets, an exception table, and local
// signatures. Bit-exact fidelity to the source assembly's instruction
// encoding is the loader's responsibility, not the core's (§6).
type BytecodeLoader interface {
	LoadMethod(assembly *il.AssemblyRef, method *il.MethodRef) (*il.MethodBody, error)
}

// TypeResolver provides type, field, and method metadata the core cannot
// derive from the IR alone (§6).
type TypeResolver interface {
	ResolveType(ref *il.Type) (*il.Type, bool)
	ResolveMethod(ref *il.MethodRef) (*il.MethodRef, bool)
	ResolveField(ref *il.FieldRef) (*il.FieldRef, bool)
	IsDelegateType(t *il.Type) bool
	IsValueType(t *il.Type) bool
	// IsContainerType supports the pure-method heuristic other framework
	// analyses (§4.7) may build on; the core itself does not use it.
	IsContainerType(t *il.Type) bool
}

// Disassembler lowers a raw stack-machine method body into TAC form; it is
// treated as an opaque producer of method bodies by every downstream
// analysis (§6).
type Disassembler interface {
	Disassemble(raw *il.MethodBody) (*il.MethodBody, error)
}
