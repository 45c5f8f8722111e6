package il

import "fmt"

// AssemblyRef identifies the compiled module a type or method was declared
// in, optionally carrying a semantic version for disambiguating two
// same-named types declared by different builds of the same assembly.
type AssemblyRef struct {
	Name    string
	Version string // e.g. "v1.4.2"; empty when unversioned
}

func (a *AssemblyRef) String() string {
	if a == nil {
		return ""
	}
	if a.Version == "" {
		return a.Name
	}
	return fmt.Sprintf("%s@%s", a.Name, a.Version)
}

// Type is a lightweight descriptor for an IL type. Full metadata (fields,
// methods, interface conformance) is the TypeResolver's responsibility;
// the IR only needs enough of a type to drive substitution (§4.1) and the
// value-type/reference-type distinction the points-to analysis relies on
// (§4.6 "skip if either type is a value type").
type Type struct {
	Name        string
	Assembly    *AssemblyRef
	ElementType *Type // array/slice element, or pointee for pointer types
	IsPointer   bool
	IsValueType bool
	IsDelegate  bool
}

func (t *Type) String() string {
	if t == nil {
		return "<invalid>"
	}
	name := t.Name
	if t.Assembly != nil {
		name = fmt.Sprintf("%s[%s]", name, t.Assembly)
	}
	if t.IsPointer {
		return "*" + name
	}
	return name
}

// PointerTo returns the pointer type for t (used by Reference.Type()).
func PointerTo(t *Type) *Type {
	return &Type{Name: t.Name, Assembly: t.Assembly, ElementType: t, IsPointer: true}
}

// Dereferenced returns the pointee type for t (used by Dereference.Type()).
// A non-pointer, non-array type dereferences to itself; callers that need a
// MalformedIR diagnostic for a genuinely non-pointer dereference should
// check IsPointer first.
func Dereferenced(t *Type) *Type {
	if t == nil || t.ElementType == nil {
		return t
	}
	return t.ElementType
}

// FieldRef identifies an instance or static field.
type FieldRef struct {
	Name           string
	DeclaringType  *Type
	FieldType      *Type
	IsStatic       bool
}

// MethodRef identifies a method or constructor.
type MethodRef struct {
	Name          string
	DeclaringType *Type
	Signature     *Signature
	IsVirtual     bool
	IsConstructor bool
}

func (m *MethodRef) String() string {
	if m == nil {
		return "<unresolved method>"
	}
	if m.DeclaringType != nil {
		return fmt.Sprintf("%s::%s", m.DeclaringType, m.Name)
	}
	return m.Name
}

// Signature describes a method's receiver, parameter and result types.
type Signature struct {
	Receiver *Type
	Params   []*Type
	Results  []*Type
}
