package pointer

import (
	"github.com/viant/ilanalysis/cfg"
	"github.com/viant/ilanalysis/external"
	"github.com/viant/ilanalysis/il"
	"github.com/viant/ilanalysis/ilerr"
)

// ReturnVariable is the distinguished "$RV" variable a Return instruction's
// value is copied to (§4.6 "Return... copy to the distinguished $RV
// variable").
var ReturnVariable il.Variable = &il.LocalVariable{VarName: "$RV"}

// Analysis is the forward monotone points-to analysis of §4.6: lattice =
// PTG, join = union, compare = graph_equals, with the per-instruction
// transfer functions below. Resolver may be nil, in which case a type is
// treated as a value type only when its own IsValueType flag is set.
type Analysis struct {
	Resolver external.TypeResolver
	Warnings ilerr.Warnings

	// method is the qualified name of the method currently being analyzed,
	// set by InitialGraph before the solver runs; every allocation-site id
	// created during Flow is scoped to it so that two methods with an
	// instruction at the same offset never collapse onto one node.
	method string
}

func (a *Analysis) isValueType(t *il.Type) bool {
	if t == nil {
		return false
	}
	if t.IsValueType {
		return true
	}
	if a.Resolver != nil {
		return a.Resolver.IsValueType(t)
	}
	return false
}

// Flow runs every instruction in n against in, producing n's output graph
// (the Flow half of the dataflow.Lattice contract, §4.4/§4.6). It never
// mutates in.
func (a *Analysis) Flow(n *cfg.CFGNode, in *Graph) *Graph {
	g := in.Clone()
	for _, ins := range n.Instructions {
		a.transfer(g, ins)
	}
	return g
}

func (a *Analysis) transfer(g *Graph, ins il.Instruction) {
	switch t := ins.(type) {
	case *il.Load:
		a.transferLoad(g, t)
	case *il.Store:
		a.transferStore(g, t)
	case *il.CreateObject:
		a.transferAlloc(g, t.ResultVar, t.Offset(), t.Type_)
	case *il.CreateArray:
		elemType := t.ElementType
		arrType := &il.Type{Name: "[]" + typeName(elemType), ElementType: elemType}
		a.transferAlloc(g, t.ResultVar, t.Offset(), arrType)
	case *il.Convert:
		a.transferCopy(g, t.ResultVar, t.Source)
	case *il.MethodCall:
		a.transferCall(g, t)
	case *il.Phi:
		a.transferPhi(g, t)
	case *il.Return:
		a.transferReturn(g, t)
	}
	// Store, branches, markers: no points-to effect beyond what is handled
	// above; Throw/Return/branches carry no result variable to update.
}

func typeName(t *il.Type) string {
	if t == nil {
		return "?"
	}
	return t.Name
}

// transferLoad dispatches on the Load's source expression to one of: null
// load, variable copy, field load, or delegate creation (§4.6).
func (a *Analysis) transferLoad(g *Graph, ins *il.Load) {
	switch src := ins.Source.(type) {
	case *il.Constant:
		if src.Payload == nil {
			g.RemoveEdges(ins.ResultVar)
			g.PointsTo(ins.ResultVar, g.Null())
		}
		// Non-nil constants carry no heap reference; leave the result
		// unregistered until it is otherwise assigned.
	case il.Variable:
		a.transferCopy(g, ins.ResultVar, src)
	case *il.InstanceFieldAccess:
		a.transferFieldLoad(g, ins.ResultVar, src.Instance, src.Field.Name, src.Field.FieldType, ins.Offset())
	case *il.ArrayElementAccess:
		a.transferFieldLoad(g, ins.ResultVar, src.Array, arrayElementField, src.Type(), ins.Offset())
	case *il.Dereference:
		if v, ok := valueVariable(src.Pointer); ok {
			a.transferFieldLoad(g, ins.ResultVar, v, dereferenceField, src.Type(), ins.Offset())
		}
	case *il.StaticFieldAccess:
		a.transferStaticFieldLoad(g, ins.ResultVar, src.Field.Name, src.Field.FieldType, ins.Offset())
	case *il.StaticMethodReference:
		node := g.GetOrInsertNode(AllocationSite(a.method, ins.Offset()), nil, KindDelegate)
		node.Method = src.Method
		g.RemoveEdges(ins.ResultVar)
		g.PointsTo(ins.ResultVar, node)
	case *il.VirtualMethodReference:
		node := g.GetOrInsertNode(AllocationSite(a.method, ins.Offset()), nil, KindDelegate)
		node.Method = src.Method
		node.Instance = src.Instance
		g.RemoveEdges(ins.ResultVar)
		g.PointsTo(ins.ResultVar, node)
	default:
		// BinaryExpression and similar value-producing expressions carry
		// no heap reference; the result is simply left unregistered.
	}
}

const (
	arrayElementField = "[]"
	dereferenceField  = "*"
)

func valueVariable(v il.Value) (il.Variable, bool) {
	variable, ok := v.(il.Variable)
	return variable, ok
}

// transferCopy implements §4.6 "Variable copy": skipped when either side
// is a value type (value semantics carry no aliasing), otherwise r's
// targets are replaced by v's.
func (a *Analysis) transferCopy(g *Graph, r il.Variable, src il.Value) {
	v, ok := valueVariable(src)
	if !ok {
		return
	}
	if a.isValueType(r.Type()) || a.isValueType(v.Type()) {
		return
	}
	g.RemoveEdges(r)
	for _, t := range g.GetTargets(v) {
		g.PointsTo(r, t)
	}
}

// transferFieldLoad implements §4.6 "Field load": synthesizes a fresh
// Unknown node for any field missing from a parameter-reachable node
// (modeling heap state the analysis never observed a write to), then
// copies the (possibly just-synthesized) field targets into r.
func (a *Analysis) transferFieldLoad(g *Graph, r il.Variable, instance il.Variable, field string, fieldType *il.Type, offset int) {
	for _, n := range g.GetTargets(instance) {
		if !n.HasField(field) && g.ReachableFromParameters(n) {
			unknown := g.GetOrInsertNode(AllocationSite(a.method, offset), fieldType, KindUnknown)
			g.PointsToField(n, field, unknown)
		}
	}
	g.RemoveEdges(r)
	for _, n := range g.GetTargets(instance) {
		for _, t := range n.Targets[field] {
			g.PointsTo(r, t)
		}
	}
}

// transferStaticFieldLoad treats the Global node as the implicit
// "instance" of a static field access and synthesizes an Unknown node for
// any static field with no recorded target; unlike an instance field load
// it applies no parameter-reachability check.
func (a *Analysis) transferStaticFieldLoad(g *Graph, r il.Variable, field string, fieldType *il.Type, offset int) {
	global := g.GetOrInsertNode(GlobalID, nil, KindGlobal)
	if !global.HasField(field) {
		unknown := g.GetOrInsertNode(AllocationSite(a.method, offset), fieldType, KindUnknown)
		g.PointsToField(global, field, unknown)
	}
	g.RemoveEdges(r)
	for _, t := range global.Targets[field] {
		g.PointsTo(r, t)
	}
}

// transferStore implements §4.6 "Field store": a may-analysis with no
// strong update — every existing target of instance gains field edges to
// every current target of the stored value.
func (a *Analysis) transferStore(g *Graph, ins *il.Store) {
	switch target := ins.Target.(type) {
	case *il.InstanceFieldAccess:
		a.storeField(g, target.Instance, target.Field.Name, ins.Source)
	case *il.ArrayElementAccess:
		a.storeField(g, target.Array, arrayElementField, ins.Source)
	case *il.StaticFieldAccess:
		global := g.GetOrInsertNode(GlobalID, nil, KindGlobal)
		for _, t := range g.valueTargets(ins.Source) {
			g.PointsToField(global, target.Field.Name, t)
		}
	case *il.Dereference:
		if v, ok := valueVariable(target.Pointer); ok {
			a.storeField(g, v, dereferenceField, ins.Source)
		}
	case il.Variable:
		a.transferCopy(g, target, ins.Source)
	}
}

func (a *Analysis) storeField(g *Graph, instance il.Variable, field string, value il.Value) {
	for _, n := range g.GetTargets(instance) {
		for _, t := range g.valueTargets(value) {
			g.PointsToField(n, field, t)
		}
	}
}

// valueTargets resolves v's current PTG targets when v is a variable;
// non-variable values (constants, expressions) contribute no targets.
func (g *Graph) valueTargets(v il.Value) []*Node {
	variable, ok := valueVariable(v)
	if !ok {
		return nil
	}
	return g.GetTargets(variable)
}

// transferAlloc implements §4.6 object/array allocation: allocation-site
// abstracted, so two allocations at the same offset in the same method
// collapse onto one node.
func (a *Analysis) transferAlloc(g *Graph, r il.Variable, offset int, typ *il.Type) {
	node := g.GetOrInsertNode(AllocationSite(a.method, offset), typ, KindObject)
	g.RemoveEdges(r)
	g.PointsTo(r, node)
}

// transferPhi implements §4.6 Phi join: every operand's targets are
// unioned into r with no prior removal, so a Phi never displaces a target
// contributed by an earlier-processed operand or a previous fixpoint
// iteration.
func (a *Analysis) transferPhi(g *Graph, ins *il.Phi) {
	for _, op := range ins.Operands {
		v, ok := valueVariable(op)
		if !ok {
			continue
		}
		for _, t := range g.GetTargets(v) {
			g.PointsTo(ins.ResultVar, t)
		}
	}
}

// transferReturn copies the returned value's targets onto ReturnVariable
// (§4.6).
func (a *Analysis) transferReturn(g *Graph, ins *il.Return) {
	if ins.Value == nil {
		return
	}
	v, ok := valueVariable(ins.Value)
	if !ok {
		return
	}
	g.RemoveEdges(ReturnVariable)
	for _, t := range g.GetTargets(v) {
		g.PointsTo(ReturnVariable, t)
	}
}

// transferCall implements the delegate-constructor retargeting rule of
// §4.6: a MethodCall whose IsDelegateConstructor() is true and whose
// receiver currently points at a delegate node retargets those delegate
// node(s) to the constructor's first argument and points the receiver at
// every delegate node the second argument points to; any other ".ctor"
// call has no points-to effect. Every other call is treated as an unresolved, whole-program
// call outside this analysis' scope (§1 Non-goals): its result, if any,
// is bound to a fresh Unknown node and the call is recorded as a warning
// so the result can be marked partial (§7).
func (a *Analysis) transferCall(g *Graph, ins *il.MethodCall) {
	if ins.IsDelegateConstructor() && ins.Receiver != nil && len(ins.Args) >= 2 {
		receiver, ok := valueVariable(ins.Receiver)
		isDelegate := false
		if ok {
			for _, dn := range g.GetTargets(receiver) {
				if dn.Kind == KindDelegate {
					isDelegate = true
				}
			}
		}
		if isDelegate {
			if actual, aok := valueVariable(ins.Args[0]); aok {
				for _, dn := range g.GetTargets(receiver) {
					if dn.Kind == KindDelegate {
						dn.Instance = actual
					}
				}
			}
			if src, sok := valueVariable(ins.Args[1]); sok {
				g.RemoveEdges(receiver)
				for _, n := range g.GetTargets(src) {
					if n.Kind == KindDelegate {
						g.PointsTo(receiver, n)
					}
				}
			}
		}
		return
	}

	if ins.ResultVar != nil {
		a.Warnings.Add(ilerr.NewUnresolvedReference("method", methodKey(ins.Method)))
		unknown := g.GetOrInsertNode(AllocationSite(a.method, ins.Offset()), nil, KindUnknown)
		g.RemoveEdges(ins.ResultVar)
		g.PointsTo(ins.ResultVar, unknown)
	}
}
