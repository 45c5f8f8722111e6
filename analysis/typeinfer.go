package analysis

import (
	"github.com/viant/ilanalysis/cfg"
	"github.com/viant/ilanalysis/dataflow"
	"github.com/viant/ilanalysis/external"
	"github.com/viant/ilanalysis/il"
)

// TypeEnv maps a variable name to its currently inferred type.
type TypeEnv map[string]*il.Type

func (e TypeEnv) clone() TypeEnv {
	out := make(TypeEnv, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func typesEqual(a, b *il.Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.String() == b.String()
}

// TypeInference propagates the most specific statically-known type through
// copy, load and call instructions (§4.7): lattice = type per variable.
// Join keeps types that agree and widens two different types to a fixed
// "object" type; it does not compute a least common supertype (see Join).
type TypeInference struct {
	Body     *il.MethodBody
	Entry    *cfg.CFGNode
	Resolver external.TypeResolver
}

// NewTypeInference seeds the analysis over body's CFG; entry is the CFG's
// Entry node, whose Initial value binds every declared parameter to its
// static type.
func NewTypeInference(body *il.MethodBody, entry *cfg.CFGNode, resolver external.TypeResolver) *TypeInference {
	return &TypeInference{Body: body, Entry: entry, Resolver: resolver}
}

func (t *TypeInference) Initial(n *cfg.CFGNode) TypeEnv {
	if n != t.Entry {
		return TypeEnv{}
	}
	env := TypeEnv{}
	for _, p := range t.Body.Parameters {
		env[p.Name()] = p.Type()
	}
	return env
}

func (t *TypeInference) Compare(a, b TypeEnv) bool {
	if len(a) != len(b) {
		return false
	}
	for k, ta := range a {
		tb, ok := b[k]
		if !ok || !typesEqual(ta, tb) {
			return false
		}
	}
	return true
}

// Join merges two type environments. A variable bound to the same type in
// both sides keeps that type; one bound in only one side keeps that side's
// type (the other path simply hasn't reached a definition of it yet); a
// variable bound to two different types falls back to a conservative
// unnamed "object" supertype, since neither the IL's Type nor
// external.TypeResolver exposes a common-ancestor query (§6 lists
// ResolveType/ResolveMethod/ResolveField/IsDelegateType/IsValueType/
// IsContainerType only) — recorded as an open decision rather than
// inventing a collaborator method the spec never names.
func (t *TypeInference) Join(a, b TypeEnv) TypeEnv {
	out := make(TypeEnv, len(a)+len(b))
	for k, ta := range a {
		out[k] = ta
	}
	for k, tb := range b {
		ta, ok := out[k]
		if !ok {
			out[k] = tb
			continue
		}
		if typesEqual(ta, tb) {
			continue
		}
		out[k] = topType
	}
	return out
}

// topType is the conservative join result for two disagreeing types.
var topType = &il.Type{Name: "object"}

func (t *TypeInference) Flow(n *cfg.CFGNode, in TypeEnv) TypeEnv {
	env := in.clone()
	for _, ins := range n.Instructions {
		t.transfer(env, ins)
	}
	return env
}

func (t *TypeInference) transfer(env TypeEnv, ins il.Instruction) {
	switch i := ins.(type) {
	case *il.Load:
		env[i.ResultVar.Name()] = valueType(env, i.Source)
	case *il.Convert:
		env[i.ResultVar.Name()] = i.Target
	case *il.CreateObject:
		env[i.ResultVar.Name()] = i.Type_
	case *il.CreateArray:
		env[i.ResultVar.Name()] = &il.Type{Name: "[]" + i.ElementType.Name, ElementType: i.ElementType}
	case *il.MethodCall:
		if i.ResultVar != nil && i.Method != nil && i.Method.Signature != nil && len(i.Method.Signature.Results) > 0 {
			env[i.ResultVar.Name()] = i.Method.Signature.Results[0]
		}
	case *il.Phi:
		var t *il.Type
		for _, op := range i.Operands {
			ot := valueType(env, op)
			if t == nil {
				t = ot
				continue
			}
			if !typesEqual(t, ot) {
				t = topType
			}
		}
		env[i.ResultVar.Name()] = t
	}
}

// valueType resolves v's current inferred type: the env's binding when v is
// a plain variable (picking up propagated refinements), otherwise the
// value's own static Type().
func valueType(env TypeEnv, v il.Value) *il.Type {
	if variable, ok := v.(il.Variable); ok {
		if t, ok := env[variable.Name()]; ok {
			return t
		}
	}
	return v.Type()
}

// SolveTypeInference runs the forward worklist solver with the
// TypeInference lattice.
func SolveTypeInference(g *cfg.ControlFlowGraph, t *TypeInference) *dataflow.Result[TypeEnv] {
	return dataflow.SolveForward(g, t)
}
