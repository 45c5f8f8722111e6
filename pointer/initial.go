package pointer

import "github.com/viant/ilanalysis/il"

// InitialGraph builds the Entry value of §4.6 "Initial value": an empty
// PTG (Null node only) plus, for every non-value-typed parameter, a fresh
// root node — a Parameter node for ordinary parameters, an Object node for
// "this" (modeling "exists and is non-null").
func (a *Analysis) InitialGraph(body *il.MethodBody) *Graph {
	a.method = methodKey(body.Method)
	g := New()
	method := a.method
	for i, p := range body.Parameters {
		if a.isValueType(p.Type()) {
			continue
		}
		kind := KindParameter
		if p.Name() == "this" {
			kind = KindObject
		}
		// Negative offsets can never collide with a real bytecode offset
		// (monotone non-decreasing, >= 0), keeping every parameter's node
		// distinct by position even when two parameters share a type.
		id := AllocationSite(method, -(i + 1))
		node := g.GetOrInsertNode(id, p.Type(), kind)
		node.ParamName = p.Name()
		g.PointsTo(p, node)
	}
	return g
}

func methodKey(m *il.MethodRef) string {
	if m == nil {
		return "<unknown method>"
	}
	return m.String()
}
