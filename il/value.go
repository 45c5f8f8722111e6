package il

// Value is the capability set every IR value exposes (§3.1, §4.1): the set
// of variables it syntactically mentions, structural substitution, and a
// derived or stored type.
type Value interface {
	// Variables returns the syntactic free variables of the value.
	// Definitions and pure function pointers return an empty set; composite
	// values union their operands.
	Variables() VarSet
	// Replace returns a value of the same variant with every free
	// occurrence of a variable named old.Name() rewritten to new. It never
	// mutates the receiver and shares no mutable sub-structure with it.
	Replace(old, new Variable) Value
	// Type returns the value's static type.
	Type() *Type
}

// Variable is the subset of Value that can appear as an assignment target
// or be substituted for another variable. Equality is by name only (§3.1
// "Variable equality invariant") — callers must not give two distinct
// variables the same name unless they intend them identified.
type Variable interface {
	Value
	Name() string
	IsParameter() bool
}

// Referenceable is any value that Reference (address-of) may target:
// a variable, a field access, an array element, or a dereference.
type Referenceable interface {
	Value
	referenceable()
}

// VarSet is a set of variables keyed by name, matching the "equal iff names
// are equal" contract.
type VarSet map[string]Variable

func NewVarSet(vars ...Variable) VarSet {
	s := make(VarSet, len(vars))
	for _, v := range vars {
		if v != nil {
			s[v.Name()] = v
		}
	}
	return s
}

// Add returns a copy of s with v added; s itself is left untouched so
// callers can build sets without aliasing bugs.
func (s VarSet) Add(v Variable) VarSet {
	out := s.Clone()
	if v != nil {
		out[v.Name()] = v
	}
	return out
}

func (s VarSet) Clone() VarSet {
	out := make(VarSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Union returns a new set containing every variable in s and other.
func (s VarSet) Union(other VarSet) VarSet {
	out := make(VarSet, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func (s VarSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// -----------------------------------------------------------------------
// Constant and UnknownValue
// -----------------------------------------------------------------------

// Constant is a compile-time literal; its payload encoding is opaque to the
// IR (the Disassembler chooses the representation).
type Constant struct {
	Payload interface{}
	Typ     *Type
}

func (c *Constant) Variables() VarSet                { return VarSet{} }
func (c *Constant) Replace(_, _ Variable) Value      { return c }
func (c *Constant) Type() *Type                      { return c.Typ }

// UnknownValue is a singleton denoting "value not statically known"; it is
// exactly one instance per process so identity and equality coincide (§9
// "Singletons").
type unknownValue struct{}

func (unknownValue) Variables() VarSet           { return VarSet{} }
func (unknownValue) Replace(_, _ Variable) Value { return Unknown }
func (unknownValue) Type() *Type                 { return nil }

var Unknown Value = unknownValue{}

// -----------------------------------------------------------------------
// Variables
// -----------------------------------------------------------------------

// LocalVariable is a named local or parameter.
type LocalVariable struct {
	VarName     string
	Typ         *Type
	IsParam     bool
}

func (v *LocalVariable) Name() string        { return v.VarName }
func (v *LocalVariable) IsParameter() bool   { return v.IsParam }
func (v *LocalVariable) Type() *Type         { return v.Typ }
func (v *LocalVariable) Variables() VarSet   { return NewVarSet(v) }
func (v *LocalVariable) referenceable()      {}
func (v *LocalVariable) Replace(old, new Variable) Value {
	if old != nil && old.Name() == v.VarName {
		return new
	}
	return v
}

// TemporalVariable is a compiler-introduced SSA-precursor temporary; its
// name is base_name + index (§3.1).
type TemporalVariable struct {
	Base  string
	Index int
	Typ   *Type
}

func (v *TemporalVariable) Name() string      { return temporalName(v.Base, v.Index) }
func (v *TemporalVariable) IsParameter() bool { return false }
func (v *TemporalVariable) Type() *Type       { return v.Typ }
func (v *TemporalVariable) Variables() VarSet { return NewVarSet(v) }
func (v *TemporalVariable) referenceable()    {}
func (v *TemporalVariable) Replace(old, new Variable) Value {
	if old != nil && old.Name() == v.Name() {
		return new
	}
	return v
}

func temporalName(base string, index int) string {
	return base + itoa(index)
}

// DerivedVariable is an SSA version of origin: name is origin.name_index
// (or origin.name when index == 0); IsParameter iff origin.IsParameter() &&
// index == 0; it shares origin's type (§3.1).
type DerivedVariable struct {
	Origin Variable
	Index  int
}

func (v *DerivedVariable) Name() string {
	if v.Index == 0 {
		return v.Origin.Name()
	}
	return v.Origin.Name() + "_" + itoa(v.Index)
}
func (v *DerivedVariable) IsParameter() bool { return v.Origin.IsParameter() && v.Index == 0 }
func (v *DerivedVariable) Type() *Type       { return v.Origin.Type() }
func (v *DerivedVariable) Variables() VarSet { return NewVarSet(v) }
func (v *DerivedVariable) referenceable()    {}
func (v *DerivedVariable) Replace(old, new Variable) Value {
	if old != nil && old.Name() == v.Name() {
		return new
	}
	return v
}

// itoa avoids importing strconv in a file dominated by IR types; kept
// trivial on purpose.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// -----------------------------------------------------------------------
// Field, array and pointer accessors
// -----------------------------------------------------------------------

// InstanceFieldAccess reads an instance field off a variable.
type InstanceFieldAccess struct {
	Instance Variable
	Field    *FieldRef
}

func (a *InstanceFieldAccess) Variables() VarSet { return a.Instance.Variables() }
func (a *InstanceFieldAccess) Type() *Type       { return a.Field.FieldType }
func (a *InstanceFieldAccess) referenceable()    {}
func (a *InstanceFieldAccess) Replace(old, new Variable) Value {
	inst := a.Instance.Replace(old, new)
	if inst == Value(a.Instance) {
		return a
	}
	newInst, ok := inst.(Variable)
	if !ok {
		return a
	}
	return &InstanceFieldAccess{Instance: newInst, Field: a.Field}
}

// StaticFieldAccess reads a static field; it mentions no variables.
type StaticFieldAccess struct {
	Field *FieldRef
}

func (a *StaticFieldAccess) Variables() VarSet                { return VarSet{} }
func (a *StaticFieldAccess) Type() *Type                      { return a.Field.FieldType }
func (a *StaticFieldAccess) referenceable()                   {}
func (a *StaticFieldAccess) Replace(_, _ Variable) Value      { return a }

// ArrayLengthAccess reads an array's length.
type ArrayLengthAccess struct {
	Instance Variable
	Typ      *Type // typically an int type, set by the Disassembler
}

func (a *ArrayLengthAccess) Variables() VarSet { return a.Instance.Variables() }
func (a *ArrayLengthAccess) Type() *Type       { return a.Typ }
func (a *ArrayLengthAccess) Replace(old, new Variable) Value {
	inst := a.Instance.Replace(old, new)
	newInst, ok := inst.(Variable)
	if !ok {
		return a
	}
	return &ArrayLengthAccess{Instance: newInst, Typ: a.Typ}
}

// ArrayElementAccess reads array[indices...]; its type is the array's
// element type (§3.1).
type ArrayElementAccess struct {
	Array   Variable
	Indices []Value
}

func (a *ArrayElementAccess) Variables() VarSet {
	out := a.Array.Variables()
	for _, idx := range a.Indices {
		out = out.Union(idx.Variables())
	}
	return out
}
func (a *ArrayElementAccess) Type() *Type { return Dereferenced(a.Array.Type()) }
func (a *ArrayElementAccess) referenceable() {}
func (a *ArrayElementAccess) Replace(old, new Variable) Value {
	changed := false
	arrVal := a.Array.Replace(old, new)
	newArr, ok := arrVal.(Variable)
	if !ok {
		newArr = a.Array
	} else if newArr != a.Array {
		changed = true
	}
	newIndices := make([]Value, len(a.Indices))
	for i, idx := range a.Indices {
		replaced := idx.Replace(old, new)
		newIndices[i] = replaced
		if replaced != idx {
			changed = true
		}
	}
	if !changed {
		return a
	}
	return &ArrayElementAccess{Array: newArr, Indices: newIndices}
}

// Dereference reads *pointer; pointer need not itself be a variable (it may
// be the result of another expression already bound to a temporary by the
// Disassembler).
type Dereference struct {
	Pointer Value
}

func (d *Dereference) Variables() VarSet { return d.Pointer.Variables() }
func (d *Dereference) Type() *Type       { return Dereferenced(d.Pointer.Type()) }
func (d *Dereference) referenceable()    {}
func (d *Dereference) Replace(old, new Variable) Value {
	p := d.Pointer.Replace(old, new)
	if p == d.Pointer {
		return d
	}
	return &Dereference{Pointer: p}
}

// Reference takes the address of a referenceable value (§3.1).
type Reference struct {
	Target Referenceable
}

func (r *Reference) Variables() VarSet { return r.Target.Variables() }
func (r *Reference) Type() *Type       { return PointerTo(r.Target.Type()) }
func (r *Reference) Replace(old, new Variable) Value {
	t := r.Target.Replace(old, new)
	newTarget, ok := t.(Referenceable)
	if !ok || newTarget == r.Target {
		return r
	}
	return &Reference{Target: newTarget}
}

// -----------------------------------------------------------------------
// First-class function pointers
// -----------------------------------------------------------------------

// StaticMethodReference is a first-class pointer to a static method; it is
// inert under substitution (no free variables).
type StaticMethodReference struct {
	Method *MethodRef
}

func (r *StaticMethodReference) Variables() VarSet           { return VarSet{} }
func (r *StaticMethodReference) Type() *Type                 { return &Type{Name: "delegate", IsDelegate: true} }
func (r *StaticMethodReference) Replace(_, _ Variable) Value { return r }

// VirtualMethodReference is a bound instance-method pointer (&obj::m).
type VirtualMethodReference struct {
	Instance Variable
	Method   *MethodRef
}

func (r *VirtualMethodReference) Variables() VarSet { return r.Instance.Variables() }
func (r *VirtualMethodReference) Type() *Type        { return &Type{Name: "delegate", IsDelegate: true} }
func (r *VirtualMethodReference) Replace(old, new Variable) Value {
	inst := r.Instance.Replace(old, new)
	newInst, ok := inst.(Variable)
	if !ok || newInst == r.Instance {
		return r
	}
	return &VirtualMethodReference{Instance: newInst, Method: r.Method}
}
