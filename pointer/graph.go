package pointer

import "github.com/viant/ilanalysis/il"

// Graph is a PTG: a directed labeled multigraph of Nodes plus a root
// relation from variable names to the nodes they currently point to
// (§3.5). The Null node is always present (I-null).
type Graph struct {
	Nodes map[ID]*Node

	// roots maps a variable name to the set of nodes it points to.
	roots map[string]edgeSet
	// varOf recovers a representative il.Variable for a rooted name —
	// kept separate from roots so RemoveEdges can empty a variable's
	// target set while still keeping it "registered" (§4.5).
	varOf map[string]il.Variable

	frames []frame
}

// New builds an empty PTG containing only the Null node (I-null).
func New() *Graph {
	g := &Graph{
		Nodes: make(map[ID]*Node),
		roots: make(map[string]edgeSet),
		varOf: make(map[string]il.Variable),
	}
	g.Nodes[NullID] = newNode(NullID, KindNull, nil)
	return g
}

// GetOrInsertNode returns the existing node with id, or creates one of the
// given kind and type (§4.5 "idempotent by id").
func (g *Graph) GetOrInsertNode(id ID, typ *il.Type, kind Kind) *Node {
	if n, ok := g.Nodes[id]; ok {
		return n
	}
	n := newNode(id, kind, typ)
	g.Nodes[id] = n
	return n
}

// Null returns the graph's singleton Null node.
func (g *Graph) Null() *Node { return g.Nodes[NullID] }

// AddVariable registers v as a known root with no targets, if not already
// present (§4.5).
func (g *Graph) AddVariable(v il.Variable) {
	name := v.Name()
	if _, ok := g.roots[name]; ok {
		g.varOf[name] = v
		return
	}
	g.roots[name] = edgeSet{}
	g.varOf[name] = v
}

// RemoveVariable forgets v entirely: its root edges and its registration
// are both removed (§4.5).
func (g *Graph) RemoveVariable(v il.Variable) {
	name := v.Name()
	g.unlinkRoots(name)
	delete(g.roots, name)
	delete(g.varOf, name)
}

// RemoveEdges clears v's root edges but keeps v registered as a known
// variable (§4.5) — used before re-establishing a fresh target set on
// reassignment.
func (g *Graph) RemoveEdges(v il.Variable) {
	name := v.Name()
	g.unlinkRoots(name)
	g.roots[name] = edgeSet{}
	g.varOf[name] = v
}

func (g *Graph) unlinkRoots(name string) {
	for _, n := range g.roots[name] {
		delete(n.Variables, name)
	}
}

// PointsTo adds v to n's variable set and n to v's target set (§4.5 "adds
// v ∈ n.variables and n ∈ variables[v]").
func (g *Graph) PointsTo(v il.Variable, n *Node) {
	name := v.Name()
	if g.roots[name] == nil {
		g.roots[name] = edgeSet{}
	}
	g.roots[name][n.ID] = n
	g.varOf[name] = v
	n.Variables = n.Variables.Add(v)
}

// PointsToField adds the labeled edge src --field--> dst in both
// directions, displacing a prior Null edge on that field first (§4.5 Null
// displacement semantics).
func (g *Graph) PointsToField(src *Node, field string, dst *Node) {
	if existing, ok := src.Targets[field]; ok {
		if _, isNullOnly := existing[NullID]; isNullOnly && len(existing) == 1 {
			src.removeTarget(field, g.Null())
		}
	}
	src.addTarget(field, dst)
}

// GetTargets returns the nodes v currently points to.
func (g *Graph) GetTargets(v il.Variable) []*Node {
	set := g.roots[v.Name()]
	out := make([]*Node, 0, len(set))
	for _, n := range set {
		out = append(out, n)
	}
	return out
}

// GetTargetsViaField returns the union of n.targets[field] over every node
// n that v points to (§4.5 "get_targets(v, field)").
func (g *Graph) GetTargetsViaField(v il.Variable, field string) []*Node {
	seen := map[ID]*Node{}
	for _, n := range g.GetTargets(v) {
		for _, t := range n.Targets[field] {
			seen[t.ID] = t
		}
	}
	out := make([]*Node, 0, len(seen))
	for _, n := range seen {
		out = append(out, n)
	}
	return out
}

// HasVariable reports whether v is currently registered, regardless of
// whether it has any target edges.
func (g *Graph) HasVariable(v il.Variable) bool {
	_, ok := g.varOf[v.Name()]
	return ok
}

// Variables returns every currently-registered root variable.
func (g *Graph) Variables() []il.Variable {
	out := make([]il.Variable, 0, len(g.varOf))
	for _, v := range g.varOf {
		out = append(out, v)
	}
	return out
}
